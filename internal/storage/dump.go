package storage

import (
	"context"
	"database/sql"

	"revue/internal/errors"
)

// Dump is the full content of the entity tables. Member passwords are kept
// exactly as stored, sealed or not.
type Dump struct {
	Members []Member `json:"members"`
	Bosses  []Boss   `json:"bosses"`
	Records []Record `json:"records"`
	Teams   []Team   `json:"teams"`
}

// Empty reports whether the dump holds no rows
func (d *Dump) Empty() bool {
	return len(d.Members) == 0 && len(d.Bosses) == 0 && len(d.Records) == 0 && len(d.Teams) == 0
}

// ReadAll reads every table inside one transaction
func (db *DB) ReadAll(ctx context.Context) (*Dump, error) {
	d := &Dump{}
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if d.Members, err = readMembers(ctx, tx); err != nil {
			return err
		}
		if d.Bosses, err = readBosses(ctx, tx); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY record_id ASC`)
		if err != nil {
			return err
		}
		if d.Records, err = collectRecords(rows); err != nil {
			return err
		}
		rows, err = tx.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY record_id ASC`)
		if err != nil {
			return err
		}
		d.Teams, err = collectTeams(rows)
		return err
	})
	if err != nil {
		return nil, errors.New(errors.Classify(err), "failed to read database", err)
	}
	return d, nil
}

// Restore writes d into an empty database in one transaction, keeping the
// original record ids. A database that already holds rows is refused.
func (db *DB) Restore(ctx context.Context, d *Dump) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		var rows int64
		if err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM members) + (SELECT COUNT(*) FROM bosses)
			     + (SELECT COUNT(*) FROM records) + (SELECT COUNT(*) FROM teams)
		`).Scan(&rows); err != nil {
			return err
		}
		if rows > 0 {
			return errors.New(errors.ConstraintViolation, "target database is not empty", nil)
		}

		for _, m := range d.Members {
			if err := m.validate(); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO members (member_id, alias, account, password) VALUES (?, ?, ?, ?)
			`, m.MemberID, m.Alias, m.Account, m.Password); err != nil {
				return err
			}
		}
		for _, b := range d.Bosses {
			if err := b.validate(); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bosses (boss_id, alias, health) VALUES (?, ?, ?)
			`, b.BossID, b.Alias, b.Health); err != nil {
				return err
			}
		}
		for _, t := range d.Teams {
			if err := t.Validate(); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO teams (record_id, member_id, team_id, team_list, us_list) VALUES (?, ?, ?, ?, ?)
			`, t.RecordID, t.MemberID, t.TeamID, EncodeList(t.Cards), EncodeList(t.Modifiers)); err != nil {
				return err
			}
		}
		for _, r := range d.Records {
			if err := r.validate(db.maxTurn); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO records (record_id, member_id, boss_id, damage, sequence, turn, team, date_time)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, r.RecordID, r.MemberID, r.BossID, r.Damage, r.Sequence, r.Turn, r.Team, r.DateTime); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.CodeOf(err), "failed to restore database", err)
	}

	db.logger.Info("Database restored",
		"members", len(d.Members),
		"bosses", len(d.Bosses),
		"records", len(d.Records),
		"teams", len(d.Teams),
	)
	return nil
}

func readMembers(ctx context.Context, q queryer) ([]Member, error) {
	rows, err := q.QueryContext(ctx, `SELECT member_id, alias, account, password FROM members ORDER BY member_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.MemberID, &m.Alias, &m.Account, &m.Password); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func readBosses(ctx context.Context, q queryer) ([]Boss, error) {
	rows, err := q.QueryContext(ctx, `SELECT boss_id, alias, health FROM bosses ORDER BY boss_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bosses := []Boss{}
	for rows.Next() {
		var b Boss
		if err := rows.Scan(&b.BossID, &b.Alias, &b.Health); err != nil {
			return nil, err
		}
		bosses = append(bosses, b)
	}
	return bosses, rows.Err()
}
