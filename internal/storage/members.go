package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"revue/internal/credential"
)

// MemberRepository manages the guild roster
type MemberRepository struct {
	db     *DB
	sealer credential.Sealer
}

// NewMemberRepository creates a new member repository. Passwords are stored
// as given until WithSealer installs a sealer.
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db, sealer: credential.Plain{}}
}

// WithSealer seals passwords at rest with s
func (r *MemberRepository) WithSealer(s credential.Sealer) *MemberRepository {
	if s != nil {
		r.sealer = s
	}
	return r
}

// Add inserts m unless a member with the same id or alias exists.
// The probe and the insert are one statement.
func (r *MemberRepository) Add(ctx context.Context, m Member) Result[Member] {
	const op = "member.add"
	m.MemberID = strings.TrimSpace(m.MemberID)
	m.Alias = strings.TrimSpace(m.Alias)
	if err := m.validate(); err != nil {
		return failure[Member](ctx, r.db, op, err)
	}

	stored, err := r.sealer.Seal(m.Password)
	if err != nil {
		return failure[Member](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO members (member_id, alias, account, password)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM members WHERE member_id = ? OR alias = ?)
	`, m.MemberID, m.Alias, m.Account, stored, m.MemberID, m.Alias)
	if err != nil {
		return failure[Member](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[Member](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[Member](StatusAlreadyExists, fmt.Sprintf("member %s or alias %s already exists", m.MemberID, m.Alias))
	}

	r.db.logger.Debug("Member added", "member_id", m.MemberID)
	return Succeeded(m, StatusInsertSuccess)
}

// Update replaces alias, account and password of the member with m.MemberID
func (r *MemberRepository) Update(ctx context.Context, m Member) Result[Member] {
	const op = "member.update"
	m.MemberID = strings.TrimSpace(m.MemberID)
	m.Alias = strings.TrimSpace(m.Alias)
	if err := m.validate(); err != nil {
		return failure[Member](ctx, r.db, op, err)
	}

	stored, err := r.sealer.Seal(m.Password)
	if err != nil {
		return failure[Member](ctx, r.db, op, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET alias = ?, account = ?, password = ?
		WHERE member_id = ?
	`, m.Alias, m.Account, stored, m.MemberID)
	if err != nil {
		return failure[Member](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[Member](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[Member](StatusNotExist, fmt.Sprintf("member %s not found", m.MemberID))
	}

	r.db.logger.Debug("Member updated", "member_id", m.MemberID)
	return Succeeded(m, StatusUpdateSuccess)
}

// Delete removes a member by id. A member still referenced by records or
// teams is rejected by the engine with CONSTRAINT_VIOLATION.
func (r *MemberRepository) Delete(ctx context.Context, memberID string) Result[string] {
	const op = "member.delete"
	memberID = strings.TrimSpace(memberID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE member_id = ?`, memberID)
	if err != nil {
		return failure[string](ctx, r.db, op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return failure[string](ctx, r.db, op, err)
	} else if n == 0 {
		return Failed[string](StatusNotExist, fmt.Sprintf("member %s not found", memberID))
	}

	r.db.logger.Debug("Member deleted", "member_id", memberID)
	return Succeeded(memberID, StatusDeleteSuccess)
}

// SearchOne finds a member by id, falling back to alias
func (r *MemberRepository) SearchOne(ctx context.Context, identifier string) Result[Member] {
	const op = "member.search"
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Failed[Member](StatusNotExist, "empty member identifier")
	}

	var m Member
	err := r.db.QueryRowContext(ctx, `
		SELECT member_id, alias, account, password FROM members
		WHERE member_id = ? OR alias = ?
		ORDER BY CASE WHEN member_id = ? THEN 0 ELSE 1 END, member_id ASC
		LIMIT 1
	`, identifier, identifier, identifier).Scan(&m.MemberID, &m.Alias, &m.Account, &m.Password)
	if err == sql.ErrNoRows {
		return Failed[Member](StatusNotExist, fmt.Sprintf("member %s not found", identifier))
	}
	if err != nil {
		return failure[Member](ctx, r.db, op, err)
	}

	if m.Password, err = r.sealer.Open(m.Password); err != nil {
		return failure[Member](ctx, r.db, op, err)
	}
	return Succeeded(m, StatusSearchSuccess)
}

// ListAll returns the roster ordered by member_id
func (r *MemberRepository) ListAll(ctx context.Context) Result[[]Member] {
	const op = "member.list"

	members, err := readMembers(ctx, r.db)
	if err != nil {
		return failure[[]Member](ctx, r.db, op, err)
	}
	for i := range members {
		if members[i].Password, err = r.sealer.Open(members[i].Password); err != nil {
			return failure[[]Member](ctx, r.db, op, err)
		}
	}
	return Succeeded(members, StatusSearchSuccess)
}

// Resolve returns the member_id an identifier refers to
func (r *MemberRepository) Resolve(ctx context.Context, identifier string) Result[string] {
	id, ok, err := resolveMemberID(ctx, r.db, identifier)
	if err != nil {
		return failure[string](ctx, r.db, "member.resolve", err)
	}
	if !ok {
		return Failed[string](StatusNotExist, fmt.Sprintf("member %s not found", identifier))
	}
	return Succeeded(id, StatusSearchSuccess)
}
