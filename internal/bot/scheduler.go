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
	"log"
	"time"
)

const relayTickInterval = time.Hour

// Цикл публикаций по расписанию. Возвращается после отмены ctx.
// В режиме ретранслятора публикацией управляет внешний опрос, цикл ничего не делает
func (bot *Bot) RunScheduler(ctx context.Context) error {
	interval := bot.tickInterval
	if bot.RelayMode() {
		interval = relayTickInterval
		log.Printf("Режим ретранслятора: публикация по запросам /relay/should-post")
	} else {
		log.Printf("Запускаем публикацию по расписанию, проверка каждые %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Планировщик остановлен")
			return nil
		case <-ticker.C:
			if bot.RelayMode() {
				continue
			}
			bot.Tick(ctx)
		}
	}
}

// Одна проверка расписания. Возвращает true, если пост был опубликован
func (bot *Bot) Tick(ctx context.Context) bool {
	if !bot.Schedule.Enabled() {
		return false
	}

	next, ok := bot.Schedule.NextRunAt()
	if !ok || bot.now().Before(next) {
		return false
	}

	log.Printf("Время публикации наступило (%s)", formatTime(next, bot.Schedule.Location()))

	// Начатая публикация доводится до конца даже при остановке
	_, err := bot.Publish(context.WithoutCancel(ctx))
	if err != nil {
		log.Printf("Ошибка публикации по расписанию: %s. Повторим на следующей проверке", err)
		bot.NotifyAdmin("❌ Ошибка публикации по расписанию: " + err.Error())
		return false
	}

	next, err = bot.Schedule.SetNextRunAfterPublish()
	if err != nil {
		log.Printf("Следующая публикация не сохранена: %s", err)
	}
	log.Printf("Следующая публикация: %s", formatTime(next, bot.Schedule.Location()))

	return true
}
