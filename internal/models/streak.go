package models

import "time"

// StreakData summarizes adherence; it is derived from the log and never stored
type StreakData struct {
	Current   int        `json:"current"`
	Best      int        `json:"best"`
	LastTaken *time.Time `json:"lastTaken,omitempty"`
}

// DayCompliance is one cell of the compliance heatmap
type DayCompliance struct {
	Day        string  `json:"day"` // YYYY-MM-DD format
	Taken      int     `json:"taken"`
	Missed     int     `json:"missed"`
	Compliance float64 `json:"compliance"` // 0..100, 0 when HasData is false
	HasData    bool    `json:"hasData"`
}
