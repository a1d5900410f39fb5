/*
   TRAVELPOSTbot - Travel posts generator and publisher bot
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot/social"
)

const notifyTimeout = 15 * time.Second

// Левенштейн
func minDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := range dp[0] {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}
	return dp[m][n]
}

func (bot *Bot) findSimilarCommands(input string) []string {
	type cmdDistance struct {
		name     string
		distance int
	}

	var distances []cmdDistance
	for _, cmd := range bot.commands {
		dist := minDistance(input, cmd.Name)
		distances = append(distances, cmdDistance{cmd.Name, dist})
	}

	sort.SliceStable(distances, func(i, j int) bool {
		return distances[i].distance < distances[j].distance
	})

	var suggestions []string
	for i := 0; i < 3 && i < len(distances); i++ {
		suggestions = append(suggestions, distances[i].name)
	}

	return suggestions
}

// Служебные сообщения администратору
type AdminNotifier struct {
	messenger social.Messenger
	chatID    string
}

func NewAdminNotifier(messenger social.Messenger, chatID string) *AdminNotifier {
	return &AdminNotifier{
		messenger: messenger,
		chatID:    chatID,
	}
}

// Отправляет сообщение администратору. false, если отправить не удалось
func (n *AdminNotifier) Notify(text string) bool {
	if n == nil || n.messenger == nil || n.chatID == "" {
		log.Printf("Уведомление администратору не отправлено (не настроено): %s", text)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if _, err := n.messenger.SendText(ctx, n.chatID, text); err != nil {
		log.Printf("Ошибка отправки уведомления администратору: %s", err)
		return false
	}

	return true
}

func formatTime(t time.Time, location *time.Location) string {
	if location != nil {
		t = t.In(location)
	}
	return t.Format("02.01.2006 15:04 MST")
}

func formatUntil(d time.Duration) string {
	if d <= 0 {
		return "уже пора"
	}

	d = d.Round(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("через %d мин", minutes)
	}
	return fmt.Sprintf("через %d ч %d мин", hours, minutes)
}
