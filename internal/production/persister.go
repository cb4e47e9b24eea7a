// Package production provides production integrations: snapshot persistence,
// transition publishing and Prometheus metrics.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/tickfsm/internal/core"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists for a machine.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type codec struct {
	ext       string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

// filePersister stores one file per machine ID.
type filePersister struct {
	dir   string
	codec codec
}

func newFilePersister(dir string, c codec) (filePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filePersister{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return filePersister{dir: dir, codec: c}, nil
}

func (p filePersister) path(machineID string) string {
	return filepath.Join(p.dir, machineID+p.codec.ext)
}

func (p filePersister) Save(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.MachineID == "" {
		return errors.New("snapshot without machine ID")
	}
	data, err := p.codec.marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// Replace atomically.
	fn := p.path(snap.MachineID)
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (p filePersister) Load(ctx context.Context, machineID string) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	fn := p.path(machineID)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Snapshot{}, fmt.Errorf("machine %q: %w", machineID, ErrSnapshotNotFound)
		}
		return core.Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snap core.Snapshot
	if err := p.codec.unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("unmarshal %s: %w", fn, err)
	}
	snap.MachineID = machineID
	return snap, nil
}

// JSONPersister stores snapshots as <dir>/<machine>.json.
type JSONPersister struct {
	filePersister
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	fp, err := newFilePersister(dir, codec{
		ext:       ".json",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	})
	if err != nil {
		return nil, err
	}
	return &JSONPersister{fp}, nil
}

// YAMLPersister stores snapshots as <dir>/<machine>.yaml.
type YAMLPersister struct {
	filePersister
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	fp, err := newFilePersister(dir, codec{
		ext:       ".yaml",
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
	})
	if err != nil {
		return nil, err
	}
	return &YAMLPersister{fp}, nil
}
