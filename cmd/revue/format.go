package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"revue/internal/guildday"
	"revue/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// ResultResponse is the JSON shape of a repository result
type ResultResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Kind    string      `json:"kind"`
	Detail  string      `json:"detail,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func responseOf[T any](r storage.Result[T]) *ResultResponse {
	resp := &ResultResponse{
		Status: r.Status.String(),
		Code:   int(r.Status),
		Kind:   string(r.Status.Kind()),
		Detail: r.Detail,
	}
	if r.OK() {
		resp.Payload = r.Payload
	}
	return resp
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp *ResultResponse, format OutputFormat, cal *guildday.Calendar) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp, cal), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp *ResultResponse, cal *guildday.Calendar) string {
	var b strings.Builder
	if resp.Kind != string(storage.KindSuccess) {
		b.WriteString(fmt.Sprintf("✗ %s", resp.Status))
		if resp.Detail != "" {
			b.WriteString(": " + resp.Detail)
		}
		return b.String()
	}

	b.WriteString(fmt.Sprintf("✓ %s\n", resp.Status))
	switch v := resp.Payload.(type) {
	case storage.Member:
		writeMember(&b, v)
	case []storage.Member:
		for _, m := range v {
			writeMember(&b, m)
		}
	case storage.Boss:
		writeBoss(&b, v)
	case []storage.Boss:
		for _, boss := range v {
			writeBoss(&b, boss)
		}
	case []storage.BossOutcome:
		for _, o := range v {
			b.WriteString(fmt.Sprintf("  %-4d %-12s %s\n", o.Boss.BossID, o.Boss.Alias, o.Status))
		}
	case storage.Record:
		writeRecord(&b, v, cal)
	case []storage.Record:
		for _, r := range v {
			writeRecord(&b, r, cal)
		}
	case storage.Team:
		writeTeam(&b, v)
	case []storage.Team:
		for _, t := range v {
			writeTeam(&b, t)
		}
	case []storage.MemberSummary:
		for _, s := range v {
			b.WriteString(fmt.Sprintf("  %-12s %-16s attempts: %d  damage: %d\n", s.MemberID, s.Alias, s.Attempts, s.TotalDamage))
		}
	case nil:
	default:
		b.WriteString(fmt.Sprintf("  %v\n", v))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeMember(b *strings.Builder, m storage.Member) {
	b.WriteString(fmt.Sprintf("  %-12s %-16s account: %s\n", m.MemberID, m.Alias, m.Account))
}

func writeBoss(b *strings.Builder, boss storage.Boss) {
	b.WriteString(fmt.Sprintf("  %-4d %-12s health: %d\n", boss.BossID, boss.Alias, boss.Health))
}

func writeRecord(b *strings.Builder, r storage.Record, cal *guildday.Calendar) {
	day := fmt.Sprintf("%d", r.DateTime)
	if cal != nil {
		day = cal.Format(r.DateTime)
	}
	b.WriteString(fmt.Sprintf("  #%-5d %s  member: %s  boss: %d  damage: %d  seq: %d  turn: %d  team: %d\n",
		r.RecordID, day, r.MemberID, r.BossID, r.Damage, r.Sequence, r.Turn, r.Team))
}

func writeTeam(b *strings.Builder, t storage.Team) {
	b.WriteString(fmt.Sprintf("  %s team %d\n", t.MemberID, t.TeamID))
	for i, card := range t.Cards {
		var mod string
		if i < len(t.Modifiers) {
			mod = t.Modifiers[i]
		}
		b.WriteString(fmt.Sprintf("    - %s (%s)\n", card, mod))
	}
}

// emit prints r in the selected format and turns a failed status into an error
// so the process exits non-zero.
func emit[T any](out io.Writer, r storage.Result[T], cal *guildday.Calendar) error {
	text, err := FormatResponse(responseOf(r), OutputFormat(formatFlag), cal)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	if !r.OK() {
		return r.Err()
	}
	return nil
}
