package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pagetrack/internal/modules/sink/domain"
	sinkout "pagetrack/internal/modules/sink/port/out"
)

const ManifestFile = "sinks.yaml"

type manifestFile struct {
	Sinks []domain.Manifest `yaml:"sinks"`
}

// FileManifestStore reads the sink registry from <dir>/sinks.yaml.
type FileManifestStore struct {
	dir string
}

func NewFileManifestStore(dir string) sinkout.ManifestStore {
	return &FileManifestStore{dir: dir}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	f, err := os.Open(filepath.Join(s.dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sink registry: %w", err)
	}
	defer f.Close()

	var file manifestFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sink registry: %w", err)
	}

	seen := make(map[string]bool, len(file.Sinks))
	for i, m := range file.Sinks {
		if seen[m.Name] {
			return nil, fmt.Errorf("sink registry: %q listed twice", m.Name)
		}
		seen[m.Name] = true
		file.Sinks[i].Binary = s.resolve(m.Binary)
	}
	return file.Sinks, nil
}

// resolve anchors relative binaries at the registry directory.
func (s *FileManifestStore) resolve(binary string) string {
	if binary == "" || filepath.IsAbs(binary) {
		return binary
	}
	return filepath.Join(s.dir, binary)
}
