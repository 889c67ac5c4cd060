package storage

import (
	"fmt"
	"strings"

	"revue/internal/errors"
)

// DefaultMaxTurn is the turn cap and the turn assumed when none is given
const DefaultMaxTurn = 6

// ListSeparator joins team cards and modifiers in storage
const ListSeparator = ","

// Member is one guild member
type Member struct {
	MemberID string `json:"memberId" yaml:"member_id" toml:"member_id"`
	Alias    string `json:"alias" yaml:"alias" toml:"alias"`
	Account  string `json:"account" yaml:"account" toml:"account"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
}

// Boss is one boss target. Batch-created bosses use boss_id = level*100 + slot + 1.
type Boss struct {
	BossID int64  `json:"bossId" yaml:"boss_id" toml:"boss_id"`
	Alias  string `json:"alias" yaml:"alias" toml:"alias"`
	Health int64  `json:"health" yaml:"health" toml:"health"`
}

// Record is one attempt against a boss
type Record struct {
	RecordID int64  `json:"recordId" yaml:"record_id" toml:"record_id"`
	MemberID string `json:"memberId" yaml:"member_id" toml:"member_id"`
	BossID   int64  `json:"bossId" yaml:"boss_id" toml:"boss_id"`
	Damage   int64  `json:"damage" yaml:"damage" toml:"damage"`
	Sequence int    `json:"sequence" yaml:"sequence" toml:"sequence"`
	Turn     int    `json:"turn" yaml:"turn" toml:"turn"`
	Team     int    `json:"team" yaml:"team" toml:"team"`
	DateTime int64  `json:"dateTime" yaml:"date_time" toml:"date_time"`
}

// Team is a saved composition; Cards[i] is paired with Modifiers[i]
type Team struct {
	RecordID  int64    `json:"recordId" yaml:"record_id" toml:"record_id"`
	MemberID  string   `json:"memberId" yaml:"member_id" toml:"member_id"`
	TeamID    int      `json:"teamId" yaml:"team_id" toml:"team_id"`
	Cards     []string `json:"cards" yaml:"cards" toml:"cards"`
	Modifiers []string `json:"modifiers" yaml:"modifiers" toml:"modifiers"`
}

// BossRange describes a batch of bosses: four slots repeated for every level
// in [Start, End).
type BossRange struct {
	Names   []string
	Healths []int64
	Start   int
	End     int
}

// BossSlots is the number of bosses per level
const BossSlots = 4

// Expand returns the bosses a range creates, ordered by boss_id
func (r BossRange) Expand() []Boss {
	bosses := make([]Boss, 0, BossSlots*(r.End-r.Start))
	for level := r.Start; level < r.End; level++ {
		for i := 0; i < BossSlots; i++ {
			bosses = append(bosses, Boss{
				BossID: int64(level*100 + i + 1),
				Alias:  fmt.Sprintf("R%d%s", level, r.Names[i]),
				Health: r.Healths[i],
			})
		}
	}
	return bosses
}

func (r BossRange) validate() error {
	if len(r.Names) != BossSlots || len(r.Healths) != BossSlots {
		return malformed("a boss range needs %d names and %d healths", BossSlots, BossSlots)
	}
	for i := 0; i < BossSlots; i++ {
		if strings.TrimSpace(r.Names[i]) == "" {
			return malformed("boss name %d is empty", i+1)
		}
		if r.Healths[i] < 0 {
			return malformed("boss health %d is negative", i+1)
		}
	}
	if r.Start < 0 || r.Start >= r.End {
		return malformed("boss range start %d must be below end %d", r.Start, r.End)
	}
	return nil
}

func (m Member) validate() error {
	if strings.TrimSpace(m.MemberID) == "" {
		return malformed("member id is empty")
	}
	if strings.TrimSpace(m.Alias) == "" {
		return malformed("member alias is empty")
	}
	return nil
}

func (b Boss) validate() error {
	if b.BossID < 0 {
		return malformed("boss id %d is negative", b.BossID)
	}
	if strings.TrimSpace(b.Alias) == "" {
		return malformed("boss alias is empty")
	}
	if b.Health < 0 {
		return malformed("boss health %d is negative", b.Health)
	}
	return nil
}

func (r Record) validate(maxTurn int) error {
	if strings.TrimSpace(r.MemberID) == "" {
		return malformed("record member id is empty")
	}
	if r.Damage < 0 {
		return malformed("damage %d is negative", r.Damage)
	}
	if r.Sequence < 1 {
		return malformed("sequence %d must be at least 1", r.Sequence)
	}
	if r.Turn < 1 || r.Turn > maxTurn {
		return malformed("turn %d must be between 1 and %d", r.Turn, maxTurn)
	}
	return nil
}

// Validate checks the card/modifier pairing before anything is persisted
func (t Team) Validate() error {
	if strings.TrimSpace(t.MemberID) == "" {
		return malformed("team member id is empty")
	}
	if len(t.Cards) == 0 {
		return malformed("team %d has no cards", t.TeamID)
	}
	if len(t.Cards) != len(t.Modifiers) {
		return malformed("team %d has %d cards but %d modifiers", t.TeamID, len(t.Cards), len(t.Modifiers))
	}
	for i := range t.Cards {
		if err := validListElement("card", t.Cards[i]); err != nil {
			return err
		}
		if err := validListElement("modifier", t.Modifiers[i]); err != nil {
			return err
		}
	}
	return nil
}

func validListElement(kind, v string) error {
	if strings.TrimSpace(v) == "" {
		return malformed("empty %s in team", kind)
	}
	if strings.Contains(v, ListSeparator) {
		return malformed("%s %q contains %q", kind, v, ListSeparator)
	}
	return nil
}

// EncodeList joins validated elements for the team_list and us_list columns
func EncodeList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// DecodeList splits a stored list; an empty column yields no elements
func DecodeList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ListSeparator)
}

func malformed(format string, args ...interface{}) error {
	return errors.New(errors.MalformedInput, fmt.Sprintf(format, args...), nil)
}
