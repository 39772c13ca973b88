// Package settings provides typed access to the INI-backed settings and
// status files. A Store is declared up front as a schema of
// (section, key) -> (kind, default) expectations; values that are missing or
// fail their typed parse fall back to the declared default. Saves are
// whole-file rewrites, so a Store is not safe for concurrent writers.
package settings

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// Kind identifies the expected type of a settings value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Expectation declares one (section, key) slot with its type and default.
type Expectation struct {
	Section string
	Key     string
	Kind    Kind
	Default any
}

// Store is a typed view over one INI file.
type Store struct {
	path         string
	file         *ini.File
	expectations []Expectation
	logger       *slog.Logger
}

// NewStore opens (or creates) the INI file at path and reconciles it against
// the given expectations: missing or unparseable values are replaced by their
// defaults and the file is rewritten so it always reflects the full schema.
func NewStore(path string, expectations []Expectation, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:         path,
		file:         file,
		expectations: expectations,
		logger:       logger,
	}
	s.applyExpectations()

	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("write settings file: %w", err)
	}
	return s, nil
}

func load(path string) (*ini.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings file: %w", err)
	}
	return file, nil
}

// applyExpectations replaces every missing or malformed value with its default.
func (s *Store) applyExpectations() {
	for _, e := range s.expectations {
		section := s.file.Section(e.Section)
		if !section.HasKey(e.Key) {
			s.setRaw(e, e.Default)
			continue
		}
		raw := section.Key(e.Key).String()
		if !parses(e.Kind, raw) {
			s.logger.Debug("settings value failed typed parse, using default",
				"section", e.Section,
				"key", e.Key,
				"value", raw,
			)
			s.setRaw(e, e.Default)
		}
	}
}

func parses(kind Kind, raw string) bool {
	switch kind {
	case KindInt:
		_, err := strconv.ParseInt(raw, 10, 64)
		return err == nil
	case KindFloat:
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	default:
		return true
	}
}

func (s *Store) setRaw(e Expectation, value any) {
	s.file.Section(e.Section).Key(e.Key).SetValue(format(value))
}

func format(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// GetString returns the value at (section, key), or the declared default when
// the slot is absent.
func (s *Store) GetString(section, key string) string {
	sec := s.file.Section(section)
	if sec.HasKey(key) {
		return sec.Key(key).String()
	}
	if d, ok := s.defaultFor(section, key); ok {
		return format(d)
	}
	return ""
}

// GetInt returns the integer value at (section, key), falling back to the
// declared default on a missing or malformed value.
func (s *Store) GetInt(section, key string) int {
	sec := s.file.Section(section)
	if sec.HasKey(key) {
		if v, err := strconv.ParseInt(sec.Key(key).String(), 10, 64); err == nil {
			return int(v)
		}
	}
	if d, ok := s.defaultFor(section, key); ok {
		if v, ok := toInt(d); ok {
			return v
		}
	}
	return 0
}

// GetFloat returns the float value at (section, key), falling back to the
// declared default on a missing or malformed value.
func (s *Store) GetFloat(section, key string) float64 {
	sec := s.file.Section(section)
	if sec.HasKey(key) {
		if v, err := strconv.ParseFloat(sec.Key(key).String(), 64); err == nil {
			return v
		}
	}
	if d, ok := s.defaultFor(section, key); ok {
		if v, ok := toFloat(d); ok {
			return v
		}
	}
	return 0
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (s *Store) defaultFor(section, key string) (any, bool) {
	for _, e := range s.expectations {
		if e.Section == section && e.Key == key {
			return e.Default, true
		}
	}
	return nil, false
}

// Set stores a value at (section, key). The change is in-memory until Save.
func (s *Store) Set(section, key string, value any) {
	s.file.Section(section).Key(key).SetValue(format(value))
}

// Save rewrites the whole file on disk.
func (s *Store) Save() error {
	return s.file.SaveTo(s.path)
}

// Raw renders the current file contents as INI text.
func (s *Store) Raw() (string, error) {
	var buf bytes.Buffer
	if _, err := s.file.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("render settings file: %w", err)
	}
	return buf.String(), nil
}

// Sections returns every named section as a key/value map, suitable for JSON
// rendering.
func (s *Store) Sections() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, sec := range s.file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		out[sec.Name()] = sec.KeysHash()
	}
	return out
}

// Path returns the on-disk location of the file.
func (s *Store) Path() string {
	return s.path
}
