package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TeamRepository manages saved team compositions
type TeamRepository struct {
	db *DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `record_id, member_id, team_id, team_list, us_list`

// Add stores t unless the member already has a team with t.TeamID
func (r *TeamRepository) Add(ctx context.Context, t Team) Result[Team] {
	const op = "team.add"
	t.MemberID = strings.TrimSpace(t.MemberID)
	if err := t.Validate(); err != nil {
		return failure[Team](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (member_id, team_id, team_list, us_list)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id, team_id) DO NOTHING
	`, t.MemberID, t.TeamID, EncodeList(t.Cards), EncodeList(t.Modifiers))
	if err != nil {
		return failure[Team](ctx, r.db, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return failure[Team](ctx, r.db, op, err)
	}
	if n == 0 {
		return Failed[Team](StatusAlreadyExists, fmt.Sprintf("team %d of member %s already exists", t.TeamID, t.MemberID))
	}
	if t.RecordID, err = res.LastInsertId(); err != nil {
		return failure[Team](ctx, r.db, op, err)
	}

	r.db.logger.Debug("Team added", "member_id", t.MemberID, "team_id", t.TeamID, "cards", len(t.Cards))
	return Succeeded(t, StatusInsertSuccess)
}

// Update replaces the cards and modifiers of (t.MemberID, t.TeamID)
func (r *TeamRepository) Update(ctx context.Context, t Team) Result[Team] {
	const op = "team.update"
	t.MemberID = strings.TrimSpace(t.MemberID)
	if err := t.Validate(); err != nil {
		return failure[Team](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE teams SET team_list = ?, us_list = ?
		WHERE member_id = ? AND team_id = ?
	`, EncodeList(t.Cards), EncodeList(t.Modifiers), t.MemberID, t.TeamID)
	if err != nil {
		return failure[Team](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[Team](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[Team](StatusNotExist, fmt.Sprintf("team %d of member %s not found", t.TeamID, t.MemberID))
	}

	r.db.logger.Debug("Team updated", "member_id", t.MemberID, "team_id", t.TeamID)
	return Succeeded(t, StatusUpdateSuccess)
}

// Delete removes one team. The member identifier resolves id-then-alias.
func (r *TeamRepository) Delete(ctx context.Context, memberIdent string, teamID int) Result[Team] {
	const op = "team.delete"

	var removed Team
	var found bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		memberID, ok, err := resolveMemberID(ctx, tx, memberIdent)
		if err != nil || !ok {
			return err
		}
		removed, err = scanTeam(tx.QueryRowContext(ctx,
			`SELECT `+teamColumns+` FROM teams WHERE member_id = ? AND team_id = ?`, memberID, teamID))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE record_id = ?`, removed.RecordID); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return failure[Team](ctx, r.db, op, err)
	}
	if !found {
		return Failed[Team](StatusNotExist, fmt.Sprintf("team %d of member %s not found", teamID, memberIdent))
	}

	r.db.logger.Debug("Team deleted", "member_id", removed.MemberID, "team_id", teamID)
	return Succeeded(removed, StatusDeleteSuccess)
}

// SearchOne finds the team teamID of a member
func (r *TeamRepository) SearchOne(ctx context.Context, memberIdent string, teamID int) Result[Team] {
	const op = "team.search"

	var t Team
	var found bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		memberID, ok, err := resolveMemberID(ctx, tx, memberIdent)
		if err != nil || !ok {
			return err
		}
		t, err = scanTeam(tx.QueryRowContext(ctx,
			`SELECT `+teamColumns+` FROM teams WHERE member_id = ? AND team_id = ?`, memberID, teamID))
		if err == sql.ErrNoRows {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return failure[Team](ctx, r.db, op, err)
	}
	if !found {
		return Failed[Team](StatusNotExist, fmt.Sprintf("team %d of member %s not found", teamID, memberIdent))
	}
	return Succeeded(t, StatusSearchSuccess)
}

// ListAll returns every team ordered by member_id then team_id
func (r *TeamRepository) ListAll(ctx context.Context) Result[[]Team] {
	const op = "team.list"

	rows, err := r.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY member_id ASC, team_id ASC`)
	if err != nil {
		return failure[[]Team](ctx, r.db, op, err)
	}
	teams, err := collectTeams(rows)
	if err != nil {
		return failure[[]Team](ctx, r.db, op, err)
	}
	return Succeeded(teams, StatusSearchSuccess)
}

func scanTeam(s rowScanner) (Team, error) {
	var t Team
	var cards, modifiers string
	if err := s.Scan(&t.RecordID, &t.MemberID, &t.TeamID, &cards, &modifiers); err != nil {
		return Team{}, err
	}
	t.Cards = DecodeList(cards)
	t.Modifiers = DecodeList(modifiers)
	return t, nil
}

// collectTeams drains and closes rows
func collectTeams(rows *sql.Rows) ([]Team, error) {
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
