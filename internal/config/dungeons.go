package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LoadDungeons reads the season dungeon pool from a JSON file mapping full
// dungeon name to short code, e.g. {"Ara-Kara, City of Echoes": "ARAK"}.
// It returns the names sorted for deterministic iteration, plus the
// name -> short code map for labelling.
func LoadDungeons(path string) ([]string, map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dungeons %s: %v", ErrLoadConfig, path, err)
	}

	short := make(map[string]string)
	if err := json.Unmarshal(raw, &short); err != nil {
		return nil, nil, fmt.Errorf("%w: dungeons %s: %v", ErrLoadConfig, path, err)
	}
	if len(short) == 0 {
		return nil, nil, fmt.Errorf("%w: dungeons %s: empty map", ErrLoadConfig, path)
	}

	names := make([]string, 0, len(short))
	for name := range short {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, short, nil
}
