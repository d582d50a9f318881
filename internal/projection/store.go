package projection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SeenMarkerStore persists the per-counterparty seen markers across client
// restarts.
type SeenMarkerStore interface {
	Load() (map[int]string, error)
	Save(markers map[int]string) error
}

// FileSeenMarkerStore keeps the markers in a JSON file, written atomically via
// a rename.
type FileSeenMarkerStore struct {
	path string
}

func NewFileSeenMarkerStore(path string) *FileSeenMarkerStore {
	return &FileSeenMarkerStore{path: path}
}

func (s *FileSeenMarkerStore) Load() (map[int]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int]string{}, nil
		}
		return nil, fmt.Errorf("read seen markers: %w", err)
	}

	markers := make(map[int]string)
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, fmt.Errorf("decode seen markers: %w", err)
	}

	return markers, nil
}

func (s *FileSeenMarkerStore) Save(markers map[int]string) error {
	data, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("encode seen markers: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write seen markers: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace seen markers: %w", err)
	}

	return nil
}
