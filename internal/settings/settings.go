// Package settings persists the device settings edited on the HAT: one
// section per channel, a general section and the alarm section.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Section names and general keys.
const (
	SectionGeneral = "general"
	SectionAlarm   = "alarm"

	KeyLightLevelLow   = "light_level_low"
	KeyBlackScreen     = "black_screen_when_light_low"
	KeyLegacyAlarmOn   = "alarm_enable"
	KeyLegacyAlarmTime = "alarm_interval"

	// DefaultLightLevelLow is the lux below which the room counts as dark.
	DefaultLightLevelLow = 4.0
)

// File is a YAML settings document. It is owned by the tick loop and is not
// safe for concurrent use.
type File struct {
	path     string
	doc      map[string]map[string]any
	lastSave []byte
}

// Load reads path. A missing file gives an empty document that Save will create.
func Load(path string) (*File, error) {
	f := &File{path: path, doc: map[string]map[string]any{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	if f.doc == nil {
		f.doc = map[string]map[string]any{}
	}

	f.lastSave, err = yaml.Marshal(f.doc)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return f, nil
}

// Path returns the file the document is saved to.
func (f *File) Path() string {
	return f.path
}

// ChannelSection returns the section name for channel id.
func ChannelSection(id int) string {
	return fmt.Sprintf("channel%d", id)
}

// Get returns a copy of section, or nil if it does not exist.
func (f *File) Get(section string) map[string]any {
	s, ok := f.doc[section]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Set merges values into section, creating it if needed.
func (f *File) Set(section string, values map[string]any) {
	s, ok := f.doc[section]
	if !ok || s == nil {
		s = map[string]any{}
		f.doc[section] = s
	}
	for k, v := range values {
		s[k] = v
	}
}

// Channel returns a copy of the section of channel id, or nil.
func (f *File) Channel(id int) map[string]any { return f.Get(ChannelSection(id)) }

// SetChannel merges values into the section of channel id.
func (f *File) SetChannel(id int, values map[string]any) { f.Set(ChannelSection(id), values) }

// General returns a copy of the general section, or nil.
func (f *File) General() map[string]any { return f.Get(SectionGeneral) }

// SetGeneral merges values into the general section.
func (f *File) SetGeneral(values map[string]any) { f.Set(SectionGeneral, values) }

// SetAlarm merges values into the alarm section.
func (f *File) SetAlarm(values map[string]any) { f.Set(SectionAlarm, values) }

// Alarm returns the alarm section. Older files kept the alarm switch and
// interval in the general section; those are translated when no alarm
// section exists.
func (f *File) Alarm() map[string]any {
	if s := f.Get(SectionAlarm); s != nil {
		return s
	}
	general := f.doc[SectionGeneral]
	out := map[string]any{}
	if v, ok := general[KeyLegacyAlarmOn]; ok {
		out["enabled"] = v
	}
	if v, ok := general[KeyLegacyAlarmTime]; ok {
		out["interval"] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LightLevelLow returns the lux threshold for darkness.
func (f *File) LightLevelLow() (float64, error) {
	v, ok := f.doc[SectionGeneral][KeyLightLevelLow]
	if !ok || v == nil {
		return DefaultLightLevelLow, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s.%s: expected a number, got %T", SectionGeneral, KeyLightLevelLow, v)
	}
}

// BlackScreen reports whether the display should blank in the dark.
func (f *File) BlackScreen() bool {
	b, _ := f.doc[SectionGeneral][KeyBlackScreen].(bool)
	return b
}

// Save writes the document if it changed since it was loaded or last saved,
// creating the directory if needed. It reports whether the file was written.
// A failed write is not retried until the document changes again.
func (f *File) Save() (bool, error) {
	data, err := yaml.Marshal(f.doc)
	if err != nil {
		return false, fmt.Errorf("encode settings: %w", err)
	}
	if f.lastSave != nil && bytes.Equal(data, f.lastSave) {
		return false, nil
	}
	f.lastSave = data
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return false, fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return false, fmt.Errorf("write settings: %w", err)
	}
	return true, nil
}
