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

	"github.com/robfig/cron/v3"
)

// Периодический отчет администратору по cron выражению
func (bot *Bot) RunReports(ctx context.Context) error {
	spec := bot.conf.Schedule.StatsReportCron
	if spec == "" {
		return nil
	}

	scheduler := cron.New(cron.WithLocation(bot.Schedule.Location()))
	_, err := scheduler.AddFunc(spec, bot.SendStatsReport)
	if err != nil {
		log.Printf("Неверное расписание отчетов %q: %s. Отчеты отключены", spec, err)
		return nil
	}

	log.Printf("Отчеты статистики по расписанию %q", spec)
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()

	return nil
}

func (bot *Bot) SendStatsReport() {
	report := renderStats(bot.Stats.Summary(defaultStatsDays), bot.Schedule.Location())
	if !bot.NotifyAdmin(fmt.Sprintf("🗓 Отчет по расписанию\n\n%s", report)) {
		log.Printf("Отчет статистики не отправлен")
	}
}
