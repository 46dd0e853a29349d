// JSON file snapshots — the portable single-world dump format.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/talgya/auralis/internal/world"
)

// SaveFile writes a world snapshot to a JSON file.
func SaveFile(path string, snap world.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a world snapshot from a JSON file. A malformed file is
// the one condition that aborts instead of degrading.
func LoadFile(path string) (world.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap world.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return world.Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
