package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shop-api/internal/models"
	"shop-api/internal/resilience"
)

// Gateway loads and saves whole-store snapshots.
type Gateway interface {
	Load() (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// FileGateway keeps the snapshot as a single indented JSON file. Writes go
// to a temp file that is renamed over the target.
type FileGateway struct {
	path       string
	attempts   int
	retryDelay time.Duration
}

func NewFileGateway(path string, attempts int) *FileGateway {
	if attempts <= 0 {
		attempts = 1
	}
	return &FileGateway{
		path:       path,
		attempts:   attempts,
		retryDelay: 50 * time.Millisecond,
	}
}

func (g *FileGateway) Path() string {
	return g.path
}

// Load fails if the file is missing or is not a valid snapshot; callers are
// expected to abort startup rather than continue with an empty store.
func (g *FileGateway) Load() (*models.Snapshot, error) {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", g.path, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", g.path, err)
	}
	if err := validate(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", g.path, err)
	}
	return normalize(&snap), nil
}

func (g *FileGateway) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(normalize(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return resilience.Retry(ctx, g.attempts, g.retryDelay, func() error {
		return g.writeAtomic(data)
	})
}

func (g *FileGateway) writeAtomic(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func validate(snap *models.Snapshot) error {
	for name, records := range map[string][]models.Record{
		"users":    snap.Users,
		"products": snap.Products,
		"orders":   snap.Orders,
	} {
		for i, r := range records {
			if r == nil {
				return fmt.Errorf("%s[%d]: record must be an object", name, i)
			}
		}
	}
	return nil
}

// normalize turns absent collections into empty ones so they encode as [].
func normalize(snap *models.Snapshot) *models.Snapshot {
	out := *snap
	if out.Users == nil {
		out.Users = []models.Record{}
	}
	if out.Products == nil {
		out.Products = []models.Record{}
	}
	if out.Orders == nil {
		out.Orders = []models.Record{}
	}
	return &out
}
