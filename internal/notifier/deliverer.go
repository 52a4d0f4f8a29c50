// Package notifier arms per-dose reminder timers and delivers them through a
// pluggable, permission-gated backend.
package notifier

import (
	"github.com/julianstephens/pillminder/internal/constants"
)

// Options shapes how a single reminder is presented.
type Options struct {
	Silent  bool
	Urgent  bool
	Vibrate []int // on/off pulse pattern in milliseconds, nil for none
	Tag     string
}

// Deliverer is a notification backend.
type Deliverer interface {
	RequestPermission() (constants.Permission, error)
	Deliver(title, body string, opts Options) error
}

var (
	normalPattern = []int{200, 100, 200}
	loudPattern   = []int{300, 100, 300, 100, 300}
)

// OptionsFor maps an intensity to delivery options. Vibration patterns are
// dropped when vibration is disabled.
func OptionsFor(intensity constants.Intensity, vibration bool) Options {
	var opts Options
	switch intensity {
	case constants.IntensityQuiet:
		opts.Silent = true
	case constants.IntensityLoud:
		opts.Urgent = true
		opts.Vibrate = append([]int(nil), loudPattern...)
	default:
		opts.Vibrate = append([]int(nil), normalPattern...)
	}
	if !vibration {
		opts.Vibrate = nil
	}
	return opts
}
