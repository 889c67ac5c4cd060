// Package backup writes and restores compressed database snapshots and
// renders the roster for sharing.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"revue/internal/errors"
	"revue/internal/storage"
)

// Snapshot is the unit of backup: every entity table plus provenance
type Snapshot struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"createdAt"`
	SchemaVersion int              `json:"schemaVersion"`
	Members       []storage.Member `json:"members"`
	Bosses        []storage.Boss   `json:"bosses"`
	Records       []storage.Record `json:"records"`
	Teams         []storage.Team   `json:"teams"`
}

// Counts summarizes a snapshot for logs and CLI output
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"members": len(s.Members),
		"bosses":  len(s.Bosses),
		"records": len(s.Records),
		"teams":   len(s.Teams),
	}
}

func (s *Snapshot) dump() *storage.Dump {
	return &storage.Dump{Members: s.Members, Bosses: s.Bosses, Records: s.Records, Teams: s.Teams}
}

// Take reads the database into a new snapshot
func Take(ctx context.Context, db *storage.DB) (*Snapshot, error) {
	version, err := db.SchemaVersion()
	if err != nil {
		return nil, errors.New(errors.Classify(err), "failed to read schema version", err)
	}
	d, err := db.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		SchemaVersion: version,
		Members:       d.Members,
		Bosses:        d.Bosses,
		Records:       d.Records,
		Teams:         d.Teams,
	}, nil
}

// Export takes a snapshot and writes it to w as zstd-compressed JSON
func Export(ctx context.Context, db *storage.DB, w io.Writer) (*Snapshot, error) {
	snap, err := Take(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := Write(w, snap); err != nil {
		return nil, err
	}

	db.Logger().Info("Backup exported", "id", snap.ID, "counts", snap.Counts())
	return snap, nil
}

// Write encodes snap to w
func Write(w io.Writer, snap *Snapshot) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write
func Read(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.MalformedInput, "not a backup file", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, errors.New(errors.MalformedInput, "failed to decode snapshot", err)
	}
	if snap.ID == "" {
		return nil, errors.New(errors.MalformedInput, "snapshot has no id", nil)
	}
	return &snap, nil
}

// Import reads a snapshot from r and restores it into db, which must be empty
func Import(ctx context.Context, db *storage.DB, r io.Reader) (*Snapshot, error) {
	snap, err := Read(r)
	if err != nil {
		return nil, err
	}

	current, err := db.SchemaVersion()
	if err != nil {
		return nil, errors.New(errors.Classify(err), "failed to read schema version", err)
	}
	if snap.SchemaVersion > current {
		return nil, errors.New(errors.MalformedInput,
			fmt.Sprintf("snapshot schema %d is newer than database schema %d", snap.SchemaVersion, current), nil)
	}

	if err := db.Restore(ctx, snap.dump()); err != nil {
		return nil, err
	}

	db.Logger().Info("Backup imported", "id", snap.ID, "created_at", snap.CreatedAt, "counts", snap.Counts())
	return snap, nil
}
