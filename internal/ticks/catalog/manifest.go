package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ticksession/internal/dto"

	"gopkg.in/yaml.v3"
)

// Manifest describes a catalog on disk.
type Manifest struct {
	PrefetchSize int          `yaml:"prefetch_size"`
	Sources      []SourceSpec `yaml:"sources"`

	baseDir string
}

// SourceSpec is one source entry; exactly one of Path and Kafka is set.
type SourceSpec struct {
	Name  string       `yaml:"name"`
	Kind  string       `yaml:"kind"` // quote, trade or empty for both
	Path  string       `yaml:"path"`
	Kafka *KafkaConfig `yaml:"kafka"`
}

// LoadManifest reads a YAML manifest and expands ${VAR} environment variables. Relative file
// paths are resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var m Manifest
	if err := yaml.Unmarshal([]byte(expanded), &m); err != nil {
		return nil, fmt.Errorf("parse manifest yaml: %w", err)
	}
	m.baseDir = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if m.PrefetchSize < 0 {
		return errors.New("prefetch_size must be >= 0")
	}
	seen := make(map[string]struct{}, len(m.Sources))
	for i, s := range m.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("sources[%d]: %w: %q", i, ErrDuplicateName, s.Name)
		}
		seen[s.Name] = struct{}{}

		if _, err := s.kind(); err != nil {
			return fmt.Errorf("sources[%d].kind: %w", i, err)
		}
		if (s.Path == "") == (s.Kafka == nil) {
			return fmt.Errorf("sources[%d]: exactly one of path or kafka is required", i)
		}
		if s.Kafka != nil {
			if err := s.Kafka.validate(); err != nil {
				return fmt.Errorf("sources[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func (s SourceSpec) kind() (dto.DataKind, error) {
	if s.Kind == "" {
		return 0, nil
	}
	return dto.ParseDataKind(s.Kind)
}

// FromManifest builds a catalog with the manifest's sources in listed order. A non-zero
// cfg.PrefetchSize overrides the manifest's.
func FromManifest(m *Manifest, cfg Config) (*Catalog, error) {
	if cfg.PrefetchSize == 0 {
		cfg.PrefetchSize = m.PrefetchSize
	}
	c := New(cfg)
	for _, s := range m.Sources {
		kind, err := s.kind()
		if err != nil {
			return nil, err
		}
		if s.Kafka != nil {
			err = c.AddKafka(s.Name, kind, *s.Kafka)
		} else {
			path := s.Path
			if !filepath.IsAbs(path) && m.baseDir != "" {
				path = filepath.Join(m.baseDir, path)
			}
			err = c.AddFile(s.Name, kind, path)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}
