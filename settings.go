package micdsp

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Settings is a key/value store of integer source settings with defaults.
//
// User values override defaults. Only user values are persisted; defaults are
// re-applied by the source's GetDefaults when a source is created. Settings is
// safe for concurrent use.
type Settings struct {
	mu       sync.RWMutex
	values   map[string]int64
	defaults map[string]int64
}

// NewSettings creates an empty settings store.
func NewSettings() *Settings {
	return &Settings{
		values:   make(map[string]int64),
		defaults: make(map[string]int64),
	}
}

// GetInt returns the user value for key, then its default, then zero.
func (s *Settings) GetInt(key string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return s.defaults[key]
}

// SetInt stores a user value for key.
func (s *Settings) SetInt(key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// SetDefaultInt stores the default value for key.
func (s *Settings) SetDefaultInt(key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[key] = value
}

// HasUserValue reports whether key carries a user value.
func (s *Settings) HasUserValue(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Erase removes the user value for key so its default applies again.
func (s *Settings) Erase(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Apply copies every user value of other into s.
func (s *Settings) Apply(other *Settings) {
	if other == nil || other == s {
		return
	}

	other.mu.RLock()
	values := make(map[string]int64, len(other.values))
	for k, v := range other.values {
		values[k] = v
	}
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

// Keys returns the keys carrying user values, sorted.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the user values as a JSON object.
func (s *Settings) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.values)
}

// UnmarshalJSON replaces the user values with the decoded JSON object.
// Defaults are left untouched.
func (s *Settings) UnmarshalJSON(data []byte) error {
	values := make(map[string]int64)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
	if s.defaults == nil {
		s.defaults = make(map[string]int64)
	}
	return nil
}

// Save writes the user values to w as JSON.
func (s *Settings) Save(w io.Writer) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Settings.Save",
		"bytes":    len(data),
	}).Debug("Settings saved")
	return nil
}

// LoadSettings reads settings previously written by Save.
func LoadSettings(r io.Reader) (*Settings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings := NewSettings()
	if err := settings.UnmarshalJSON(data); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoadSettings",
			"bytes":    len(data),
			"error":    err.Error(),
		}).Error("Failed to load settings")
		return nil, err
	}
	return settings, nil
}
