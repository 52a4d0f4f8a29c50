// Package streak derives adherence statistics from the pill log. Nothing
// here is persisted; every figure is recomputed from logs.
package streak

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/utils"
)

// CalculateStreak returns the length of the run of consecutive calendar days
// ending at the newest date. Several dates on the same day count once.
func CalculateStreak(dates []time.Time) int {
	days := distinctDays(dates)
	if len(days) == 0 {
		return 0
	}

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if utils.DaysBetween(days[i-1], days[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// BestStreak returns the longest run of consecutive calendar days anywhere in dates.
func BestStreak(dates []time.Time) int {
	days := distinctDays(dates)
	if len(days) == 0 {
		return 0
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// distinctDays returns one midnight per calendar day, oldest first.
func distinctDays(dates []time.Time) []time.Time {
	seen := make(map[string]bool, len(dates))
	var days []time.Time
	for _, d := range dates {
		key := utils.DayKey(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, utils.StartOfDay(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// takenTimes returns the intake moments of taken logs, in the location of now.
func takenTimes(logs []models.PillLog, loc *time.Location) []time.Time {
	var out []time.Time
	for _, l := range logs {
		if l.Status == constants.StatusTaken && l.TakenTime != nil {
			out = append(out, l.TakenTime.In(loc))
		}
	}
	return out
}

// Compute summarizes the taken logs. The current streak lapses to zero once
// the newest taken day is more than one calendar day before now.
func Compute(logs []models.PillLog, now time.Time) models.StreakData {
	taken := takenTimes(logs, now.Location())
	if len(taken) == 0 {
		return models.StreakData{}
	}

	var data models.StreakData
	last := taken[0]
	for _, t := range taken[1:] {
		if t.After(last) {
			last = t
		}
	}
	data.LastTaken = &last

	data.Current = CalculateStreak(taken)
	if utils.DaysBetween(last, now) > 1 {
		data.Current = 0
	}
	data.Best = BestStreak(taken)
	return data
}

func ratio(taken, missed int) (float64, bool) {
	if taken+missed == 0 {
		return 0, false
	}
	pct := float64(taken) / float64(taken+missed) * 100
	return math.Round(pct*100) / 100, true
}

// Heatmap returns one cell per day for the trailing window ending today,
// oldest first. Logs are bucketed by their scheduled day; pending and
// snoozed logs do not count toward either side.
func Heatmap(logs []models.PillLog, now time.Time, days int) []models.DayCompliance {
	if days <= 0 {
		days = constants.DefaultHeatmapDays
	}

	type counts struct{ taken, missed int }
	byDay := make(map[string]*counts)
	for _, l := range logs {
		if l.Status != constants.StatusTaken && l.Status != constants.StatusMissed {
			continue
		}
		key := utils.DayKey(l.ScheduledTime.In(now.Location()))
		c := byDay[key]
		if c == nil {
			c = &counts{}
			byDay[key] = c
		}
		if l.Status == constants.StatusTaken {
			c.taken++
		} else {
			c.missed++
		}
	}

	start := utils.StartOfDay(now)
	cells := make([]models.DayCompliance, 0, days)
	for i := days - 1; i >= 0; i-- {
		// AddDate keeps local midnight across DST changes
		key := utils.DayKey(start.AddDate(0, 0, -i))
		cell := models.DayCompliance{Day: key}
		if c := byDay[key]; c != nil {
			cell.Taken, cell.Missed = c.taken, c.missed
			cell.Compliance, cell.HasData = ratio(c.taken, c.missed)
		}
		cells = append(cells, cell)
	}
	return cells
}

// Overall is the compliance ratio across the whole log.
func Overall(logs []models.PillLog) models.DayCompliance {
	var out models.DayCompliance
	for _, l := range logs {
		switch l.Status {
		case constants.StatusTaken:
			out.Taken++
		case constants.StatusMissed:
			out.Missed++
		}
	}
	out.Compliance, out.HasData = ratio(out.Taken, out.Missed)
	return out
}
