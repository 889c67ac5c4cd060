package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// resolveMemberID maps an id or alias to a member_id. An exact id wins; alias
// ties go to the lowest member_id. ok is false when nothing matches.
func resolveMemberID(ctx context.Context, q queryer, identifier string) (id string, ok bool, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false, nil
	}

	err = q.QueryRowContext(ctx, `
		SELECT member_id FROM members
		WHERE member_id = ? OR alias = ?
		ORDER BY CASE WHEN member_id = ? THEN 0 ELSE 1 END, member_id ASC
		LIMIT 1
	`, identifier, identifier, identifier).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// resolveBossID maps an integer id or an alias to a boss_id. An identifier
// that parses as an integer is tried as an id first.
func resolveBossID(ctx context.Context, q queryer, identifier string) (id int64, ok bool, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, false, nil
	}

	numeric := parseBossID(identifier)
	err = q.QueryRowContext(ctx, `
		SELECT boss_id FROM bosses
		WHERE boss_id = ? OR alias = ?
		ORDER BY CASE WHEN boss_id = ? THEN 0 ELSE 1 END, boss_id ASC
		LIMIT 1
	`, numeric, identifier, numeric).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// parseBossID yields NULL for non-numeric identifiers so the id branch never matches
func parseBossID(identifier string) sql.NullInt64 {
	n, err := strconv.ParseInt(identifier, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
