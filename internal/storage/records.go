package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RecordRepository manages attempt records
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `record_id, member_id, boss_id, damage, sequence, turn, team, date_time`

// Add always inserts; records have no natural key. The payload carries the
// assigned record_id. A zero DateTime is stamped with the current time.
// Unknown member or boss ids are rejected by the foreign keys.
func (r *RecordRepository) Add(ctx context.Context, rec Record) Result[Record] {
	const op = "record.add"
	rec.MemberID = strings.TrimSpace(rec.MemberID)
	if err := rec.validate(r.db.maxTurn); err != nil {
		return failure[Record](ctx, r.db, op, err)
	}
	if rec.DateTime == 0 {
		rec.DateTime = time.Now().Unix()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO records (member_id, boss_id, damage, sequence, turn, team, date_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.MemberID, rec.BossID, rec.Damage, rec.Sequence, rec.Turn, rec.Team, rec.DateTime)
	if err != nil {
		return failure[Record](ctx, r.db, op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return failure[Record](ctx, r.db, op, err)
	}
	rec.RecordID = id

	r.db.logger.Debug("Record added",
		"record_id", id,
		"member_id", rec.MemberID,
		"boss_id", rec.BossID,
		"damage", rec.Damage,
	)
	return Succeeded(rec, StatusInsertSuccess)
}

// Update replaces every mutable field of the record with rec.RecordID
func (r *RecordRepository) Update(ctx context.Context, rec Record) Result[Record] {
	const op = "record.update"
	rec.MemberID = strings.TrimSpace(rec.MemberID)
	if err := rec.validate(r.db.maxTurn); err != nil {
		return failure[Record](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE records
		SET member_id = ?, boss_id = ?, damage = ?, sequence = ?, turn = ?, team = ?, date_time = ?
		WHERE record_id = ?
	`, rec.MemberID, rec.BossID, rec.Damage, rec.Sequence, rec.Turn, rec.Team, rec.DateTime, rec.RecordID)
	if err != nil {
		return failure[Record](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[Record](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[Record](StatusNotExist, fmt.Sprintf("record %d not found", rec.RecordID))
	}

	r.db.logger.Debug("Record updated", "record_id", rec.RecordID)
	return Succeeded(rec, StatusUpdateSuccess)
}

// DeleteByID removes exactly one record
func (r *RecordRepository) DeleteByID(ctx context.Context, recordID int64) Result[int64] {
	const op = "record.delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE record_id = ?`, recordID)
	if err != nil {
		return failure[int64](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[int64](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[int64](StatusNotExist, fmt.Sprintf("record %d not found", recordID))
	}

	r.db.logger.Debug("Record deleted", "record_id", recordID)
	return Succeeded(recordID, StatusDeleteSuccess)
}

// DeleteMatching removes every record of the member against the boss with
// exactly this damage. Identifiers resolve id-then-alias. The payload is the
// number of rows removed.
func (r *RecordRepository) DeleteMatching(ctx context.Context, memberIdent, bossIdent string, damage int64) Result[int64] {
	const op = "record.delete_matching"

	var removed int64
	var missing string
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		memberID, ok, err := resolveMemberID(ctx, tx, memberIdent)
		if err != nil {
			return err
		}
		if !ok {
			missing = fmt.Sprintf("member %s not found", memberIdent)
			return nil
		}
		bossID, ok, err := resolveBossID(ctx, tx, bossIdent)
		if err != nil {
			return err
		}
		if !ok {
			missing = fmt.Sprintf("boss %s not found", bossIdent)
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM records WHERE member_id = ? AND boss_id = ? AND damage = ?
		`, memberID, bossID, damage)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return failure[int64](ctx, r.db, op, err)
	}
	if missing != "" {
		return Failed[int64](StatusNotExist, missing)
	}
	if removed == 0 {
		return Failed[int64](StatusNotExist, fmt.Sprintf("no record of %s against %s with damage %d", memberIdent, bossIdent, damage))
	}

	r.db.logger.Debug("Records deleted", "member", memberIdent, "boss", bossIdent, "damage", damage, "count", removed)
	return Succeeded(removed, StatusDeleteSuccess)
}

// DeleteIDs removes exactly the listed records in one transaction. Ids that
// are already gone are skipped; the payload is the number of rows removed.
func (r *RecordRepository) DeleteIDs(ctx context.Context, recordIDs []int64) Result[int64] {
	const op = "record.delete_ids"
	if len(recordIDs) == 0 {
		return Failed[int64](StatusNotExist, "no records to delete")
	}

	var removed int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM records WHERE record_id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range recordIDs {
			res, err := stmt.ExecContext(ctx, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return failure[int64](ctx, r.db, op, err)
	}
	if removed == 0 {
		return Failed[int64](StatusNotExist, "records already deleted")
	}

	r.db.logger.Debug("Records deleted", "record_ids", recordIDs, "count", removed)
	return Succeeded(removed, StatusDeleteSuccess)
}

// SearchOne finds a record by record_id
func (r *RecordRepository) SearchOne(ctx context.Context, recordID int64) Result[Record] {
	const op = "record.search"

	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE record_id = ?`, recordID))
	if err == sql.ErrNoRows {
		return Failed[Record](StatusNotExist, fmt.Sprintf("record %d not found", recordID))
	}
	if err != nil {
		return failure[Record](ctx, r.db, op, err)
	}
	return Succeeded(rec, StatusSearchSuccess)
}

// ListAll returns every record ordered by record_id
func (r *RecordRepository) ListAll(ctx context.Context) Result[[]Record] {
	const op = "record.list"

	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY record_id ASC`)
	if err != nil {
		return failure[[]Record](ctx, r.db, op, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return failure[[]Record](ctx, r.db, op, err)
	}
	return Succeeded(records, StatusSearchSuccess)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s rowScanner) (Record, error) {
	var rec Record
	err := s.Scan(&rec.RecordID, &rec.MemberID, &rec.BossID, &rec.Damage,
		&rec.Sequence, &rec.Turn, &rec.Team, &rec.DateTime)
	return rec, err
}

// collectRecords drains and closes rows
func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
