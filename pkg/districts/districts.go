// Package districts loads the list of Seoul districts to watch from YAML/JSON files.
package districts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const defaultRequestDelayMs = 500

// District is one watched administrative district.
// Name is sent verbatim to the parking API, e.g. "강남구".
type District struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	RequestDelayMs int    `json:"request_delay_ms" yaml:"request_delay_ms"`
	Enabled        *bool  `json:"enabled" yaml:"enabled"`
}

type fileFormat struct {
	Districts []District `json:"districts" yaml:"districts"`
}

// Registry holds the districts loaded from a config file.
type Registry struct {
	mu        sync.RWMutex
	districts []District
	idx       map[string]District
}

// LoadRegistry loads the district registry from file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("districts file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open districts file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read districts file: %w", err)
	}

	parsed, err := parseFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Districts)
}

// NewRegistry validates and indexes districts.
func NewRegistry(list []District) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("districts file contains no districts entries")
	}

	reg := &Registry{
		districts: make([]District, len(list)),
		idx:       make(map[string]District, len(list)),
	}
	for i := range list {
		d := sanitize(list[i])
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("districts[%d]: %w", i, err)
		}
		if _, exists := reg.idx[d.ID]; exists {
			return nil, fmt.Errorf("duplicate district id %q", d.ID)
		}
		reg.districts[i] = d
		reg.idx[d.ID] = d
	}
	return reg, nil
}

func parseFile(data []byte, ext string) (fileFormat, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out fileFormat
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}

	return fileFormat{}, errors.New("districts file format not recognized (expected YAML or JSON)")
}

func sanitize(d District) District {
	d.ID = strings.ToLower(strings.TrimSpace(d.ID))
	d.Name = strings.TrimSpace(d.Name)
	if d.ID == "" {
		d.ID = strings.ToLower(d.Name)
	}
	if d.RequestDelayMs <= 0 {
		d.RequestDelayMs = defaultRequestDelayMs
	}
	if d.Enabled == nil {
		enabled := true
		d.Enabled = &enabled
	}
	return d
}

func validate(d District) error {
	if d.Name == "" {
		return fmt.Errorf("name is required for district %q", d.ID)
	}
	if d.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

// RequestDelay is the pause inserted after polling this district.
func (d District) RequestDelay() time.Duration {
	if d.RequestDelayMs <= 0 {
		return defaultRequestDelayMs * time.Millisecond
	}
	return time.Duration(d.RequestDelayMs) * time.Millisecond
}

// IsEnabled defaults to true.
func (d District) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// All returns a copy of every loaded district.
func (r *Registry) All() []District {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]District, len(r.districts))
	copy(out, r.districts)
	return out
}

// Enabled returns the districts that should be polled.
func (r *Registry) Enabled() []District {
	return lo.Filter(r.All(), func(d District, _ int) bool {
		return d.IsEnabled()
	})
}

// ByID looks a district up by its (case-insensitive) id.
func (r *Registry) ByID(id string) (District, bool) {
	if r == nil {
		return District{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return District{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.idx[id]
	return d, ok
}
