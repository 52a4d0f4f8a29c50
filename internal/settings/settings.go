// Package settings is the persisted AppSettings layer. It fills in missing
// fields and clamps the snooze length so the rest of the app can trust it.
package settings

import (
	"fmt"

	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/persist"
)

type Store struct {
	value *persist.Value[models.AppSettings]
}

func Bind(s *persist.Store) *Store {
	return &Store{value: persist.Bind(s, constants.KeyAppSettings, models.DefaultSettings())}
}

// Get returns the current settings with defaults applied.
func (s *Store) Get() models.AppSettings {
	settings := s.value.Get()
	models.ApplyDefaultSettings(&settings)
	return settings
}

// Save clamps the snooze length, validates, and persists.
func (s *Store) Save(settings models.AppSettings) error {
	settings.SnoozeMinutes = models.ClampSnoozeMinutes(settings.SnoozeMinutes)
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return s.value.Set(settings)
}

// Update applies named settings in their string form, e.g. snooze_minutes=15.
func (s *Store) Update(values map[string]string) (models.AppSettings, error) {
	settings, err := s.value.Load()
	if err != nil {
		return models.AppSettings{}, err
	}
	models.ApplyDefaultSettings(&settings)
	for key, value := range values {
		if err := models.ApplySetting(&settings, key, value); err != nil {
			return models.AppSettings{}, err
		}
	}
	if err := s.Save(settings); err != nil {
		return models.AppSettings{}, err
	}
	return settings, nil
}

func (s *Store) Reset() error {
	return s.value.Clear()
}

func (s *Store) SnoozeMinutes() int {
	return s.Get().SnoozeMinutes
}

func (s *Store) Subscribe(fn func()) func() {
	return s.value.Subscribe(fn)
}

func (s *Store) Refresh() {
	s.value.Refresh()
}
