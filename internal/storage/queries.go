package storage

import (
	"context"
	"database/sql"
	"fmt"

	"revue/internal/guildday"
)

// QueryService answers questions that span more than one entity
type QueryService struct {
	db *DB
}

// NewQueryService creates a query service over db
func NewQueryService(db *DB) *QueryService {
	return &QueryService{db: db}
}

// MemberSummary aggregates one member's attempts in a window
type MemberSummary struct {
	MemberID    string `json:"memberId" yaml:"member_id" toml:"member_id"`
	Alias       string `json:"alias" yaml:"alias" toml:"alias"`
	Attempts    int    `json:"attempts" yaml:"attempts" toml:"attempts"`
	TotalDamage int64  `json:"totalDamage" yaml:"total_damage" toml:"total_damage"`
}

// RecordsByMember returns the member's records with date_time inside w,
// ordered by record_id. Resolution and selection share one transaction.
func (s *QueryService) RecordsByMember(ctx context.Context, identifier string, w guildday.Window) Result[[]Record] {
	const op = "query.records_by_member"

	var records []Record
	var found bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		memberID, ok, err := resolveMemberID(ctx, tx, identifier)
		if err != nil || !ok {
			return err
		}
		found = true
		rows, err := tx.QueryContext(ctx, `
			SELECT `+recordColumns+` FROM records
			WHERE member_id = ? AND date_time BETWEEN ? AND ?
			ORDER BY record_id ASC
		`, memberID, w.Start, w.End)
		if err != nil {
			return err
		}
		records, err = collectRecords(rows)
		return err
	})
	if err != nil {
		return failure[[]Record](ctx, s.db, op, err)
	}
	if !found {
		return Failed[[]Record](StatusNotExist, fmt.Sprintf("member %s not found", identifier))
	}
	return Succeeded(records, StatusSearchSuccess)
}

// RecordsByBoss returns the boss's records with date_time inside w,
// ordered by record_id
func (s *QueryService) RecordsByBoss(ctx context.Context, identifier string, w guildday.Window) Result[[]Record] {
	const op = "query.records_by_boss"

	var records []Record
	var found bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		bossID, ok, err := resolveBossID(ctx, tx, identifier)
		if err != nil || !ok {
			return err
		}
		found = true
		rows, err := tx.QueryContext(ctx, `
			SELECT `+recordColumns+` FROM records
			WHERE boss_id = ? AND date_time BETWEEN ? AND ?
			ORDER BY record_id ASC
		`, bossID, w.Start, w.End)
		if err != nil {
			return err
		}
		records, err = collectRecords(rows)
		return err
	})
	if err != nil {
		return failure[[]Record](ctx, s.db, op, err)
	}
	if !found {
		return Failed[[]Record](StatusNotExist, fmt.Sprintf("boss %s not found", identifier))
	}
	return Succeeded(records, StatusSearchSuccess)
}

// TeamsByMember returns every team of the member ordered by team_id
func (s *QueryService) TeamsByMember(ctx context.Context, identifier string) Result[[]Team] {
	const op = "query.teams_by_member"

	var teams []Team
	var found bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		memberID, ok, err := resolveMemberID(ctx, tx, identifier)
		if err != nil || !ok {
			return err
		}
		found = true
		rows, err := tx.QueryContext(ctx, `
			SELECT `+teamColumns+` FROM teams
			WHERE member_id = ?
			ORDER BY team_id ASC
		`, memberID)
		if err != nil {
			return err
		}
		teams, err = collectTeams(rows)
		return err
	})
	if err != nil {
		return failure[[]Team](ctx, s.db, op, err)
	}
	if !found {
		return Failed[[]Team](StatusNotExist, fmt.Sprintf("member %s not found", identifier))
	}
	return Succeeded(teams, StatusSearchSuccess)
}

// DailySummary aggregates attempts per member inside w. Members without
// attempts are omitted.
func (s *QueryService) DailySummary(ctx context.Context, w guildday.Window) Result[[]MemberSummary] {
	const op = "query.daily_summary"

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.member_id, m.alias, COUNT(r.record_id), COALESCE(SUM(r.damage), 0)
		FROM records r
		JOIN members m ON m.member_id = r.member_id
		WHERE r.date_time BETWEEN ? AND ?
		GROUP BY m.member_id, m.alias
		ORDER BY m.member_id ASC
	`, w.Start, w.End)
	if err != nil {
		return failure[[]MemberSummary](ctx, s.db, op, err)
	}
	defer rows.Close()

	summaries := []MemberSummary{}
	for rows.Next() {
		var ms MemberSummary
		if err := rows.Scan(&ms.MemberID, &ms.Alias, &ms.Attempts, &ms.TotalDamage); err != nil {
			return failure[[]MemberSummary](ctx, s.db, op, err)
		}
		summaries = append(summaries, ms)
	}
	if err := rows.Err(); err != nil {
		return failure[[]MemberSummary](ctx, s.db, op, err)
	}
	return Succeeded(summaries, StatusSearchSuccess)
}
