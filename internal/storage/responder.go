package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// Responder file operations (filesystem-backed)

func (r *RedisStorage) respondersDir() string {
	return filepath.Join(r.dataDir, "responders")
}

func (r *RedisStorage) loadResponderFile(id string) (*dialogue.Definition, error) {
	path := filepath.Join(r.respondersDir(), id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResponderNotFound, id)
		}
		return nil, fmt.Errorf("failed to read responder file %s: %w", path, err)
	}

	def, err := dialogue.DecodeDefinition(data, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse responder JSON from %s: %w", path, err)
	}
	def.ID = id // Ensure ID is set from filename

	return def, nil
}

func (r *RedisStorage) listResponderFiles() ([]string, error) {
	entries, err := os.ReadDir(r.respondersDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read responders directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		if !dialogue.IsValidID(id) {
			r.logger.Warn("Skipping responder file with invalid name", "file", entry.Name())
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uniqueSorted(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}
