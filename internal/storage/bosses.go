package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// BossRepository manages boss targets
type BossRepository struct {
	db *DB
}

// NewBossRepository creates a new boss repository
func NewBossRepository(db *DB) *BossRepository {
	return &BossRepository{db: db}
}

// BossOutcome is the per-boss result of a batch add
type BossOutcome struct {
	Boss   Boss   `json:"boss"`
	Status Status `json:"status"`
}

const insertBossSQL = `
	INSERT INTO bosses (boss_id, alias, health)
	SELECT ?, ?, ?
	WHERE NOT EXISTS (SELECT 1 FROM bosses WHERE boss_id = ? OR alias = ?)
`

// Add inserts b unless a boss with the same id or alias exists
func (r *BossRepository) Add(ctx context.Context, b Boss) Result[Boss] {
	const op = "boss.add"
	b.Alias = strings.TrimSpace(b.Alias)
	if err := b.validate(); err != nil {
		return failure[Boss](ctx, r.db, op, err)
	}

	inserted, err := insertBoss(ctx, r.db, b)
	if err != nil {
		return failure[Boss](ctx, r.db, op, err)
	}
	if !inserted {
		return Failed[Boss](StatusAlreadyExists, fmt.Sprintf("boss %d or alias %s already exists", b.BossID, b.Alias))
	}

	r.db.logger.Debug("Boss added", "boss_id", b.BossID, "alias", b.Alias)
	return Succeeded(b, StatusInsertSuccess)
}

func insertBoss(ctx context.Context, q queryer, b Boss) (bool, error) {
	res, err := q.ExecContext(ctx, insertBossSQL, b.BossID, b.Alias, b.Health, b.BossID, b.Alias)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddRange creates 4 x (End-Start) bosses in one transaction. Existing bosses
// are skipped and reported per slot; the batch fails only on storage errors.
// Status is INSERT_SUCCESS when at least one boss was created.
func (r *BossRepository) AddRange(ctx context.Context, rng BossRange) Result[[]BossOutcome] {
	const op = "boss.add_range"
	if err := rng.validate(); err != nil {
		return failure[[]BossOutcome](ctx, r.db, op, err)
	}

	bosses := rng.Expand()
	outcomes := make([]BossOutcome, 0, len(bosses))
	created := 0

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, b := range bosses {
			inserted, err := insertBoss(ctx, tx, b)
			if err != nil {
				return err
			}
			status := StatusAlreadyExists
			if inserted {
				status = StatusInsertSuccess
				created++
			}
			outcomes = append(outcomes, BossOutcome{Boss: b, Status: status})
		}
		return nil
	})
	if err != nil {
		return failure[[]BossOutcome](ctx, r.db, op, err)
	}

	r.db.logger.Debug("Boss range added", "start", rng.Start, "end", rng.End, "created", created)
	if created == 0 {
		return Result[[]BossOutcome]{
			Payload: outcomes,
			Status:  StatusAlreadyExists,
			Detail:  "every boss in the range already exists",
		}
	}
	return Succeeded(outcomes, StatusInsertSuccess)
}

// Update replaces alias and health of the boss with b.BossID
func (r *BossRepository) Update(ctx context.Context, b Boss) Result[Boss] {
	const op = "boss.update"
	b.Alias = strings.TrimSpace(b.Alias)
	if err := b.validate(); err != nil {
		return failure[Boss](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE bosses SET alias = ?, health = ? WHERE boss_id = ?
	`, b.Alias, b.Health, b.BossID)
	if err != nil {
		return failure[Boss](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[Boss](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[Boss](StatusNotExist, fmt.Sprintf("boss %d not found", b.BossID))
	}

	r.db.logger.Debug("Boss updated", "boss_id", b.BossID)
	return Succeeded(b, StatusUpdateSuccess)
}

// Delete removes a boss by id. Bosses referenced by records are protected
// by the foreign key.
func (r *BossRepository) Delete(ctx context.Context, bossID int64) Result[int64] {
	const op = "boss.delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM bosses WHERE boss_id = ?`, bossID)
	if err != nil {
		return failure[int64](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[int64](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[int64](StatusNotExist, fmt.Sprintf("boss %d not found", bossID))
	}

	r.db.logger.Debug("Boss deleted", "boss_id", bossID)
	return Succeeded(bossID, StatusDeleteSuccess)
}

// SearchOne finds a boss by integer id, falling back to alias
func (r *BossRepository) SearchOne(ctx context.Context, identifier string) Result[Boss] {
	const op = "boss.search"
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Failed[Boss](StatusNotExist, "empty boss identifier")
	}

	numeric := parseBossID(identifier)
	var b Boss
	err := r.db.QueryRowContext(ctx, `
		SELECT boss_id, alias, health FROM bosses
		WHERE boss_id = ? OR alias = ?
		ORDER BY CASE WHEN boss_id = ? THEN 0 ELSE 1 END, boss_id ASC
		LIMIT 1
	`, numeric, identifier, numeric).Scan(&b.BossID, &b.Alias, &b.Health)
	if err == sql.ErrNoRows {
		return Failed[Boss](StatusNotExist, fmt.Sprintf("boss %s not found", identifier))
	}
	if err != nil {
		return failure[Boss](ctx, r.db, op, err)
	}
	return Succeeded(b, StatusSearchSuccess)
}

// ListAll returns every boss ordered by boss_id
func (r *BossRepository) ListAll(ctx context.Context) Result[[]Boss] {
	bosses, err := readBosses(ctx, r.db)
	if err != nil {
		return failure[[]Boss](ctx, r.db, "boss.list", err)
	}
	return Succeeded(bosses, StatusSearchSuccess)
}

// Resolve returns the boss_id an identifier refers to
func (r *BossRepository) Resolve(ctx context.Context, identifier string) Result[int64] {
	id, ok, err := resolveBossID(ctx, r.db, identifier)
	if err != nil {
		return failure[int64](ctx, r.db, "boss.resolve", err)
	}
	if !ok {
		return Failed[int64](StatusNotExist, fmt.Sprintf("boss %s not found", identifier))
	}
	return Succeeded(id, StatusSearchSuccess)
}
