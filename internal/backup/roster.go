package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"revue/internal/storage"
)

// Roster formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Roster is the shareable view of a snapshot. Records are left out and
// passwords are never rendered.
type Roster struct {
	Members []storage.Member `json:"members" yaml:"members" toml:"members"`
	Bosses  []storage.Boss   `json:"bosses" yaml:"bosses" toml:"bosses"`
	Teams   []storage.Team   `json:"teams" yaml:"teams" toml:"teams"`
}

// RosterOf strips a snapshot down to its roster
func RosterOf(snap *Snapshot) Roster {
	r := Roster{
		Members: make([]storage.Member, 0, len(snap.Members)),
		Bosses:  snap.Bosses,
		Teams:   snap.Teams,
	}
	for _, m := range snap.Members {
		m.Password = ""
		r.Members = append(r.Members, m)
	}
	if r.Bosses == nil {
		r.Bosses = []storage.Boss{}
	}
	if r.Teams == nil {
		r.Teams = []storage.Team{}
	}
	return r
}

// RenderRoster writes the roster of snap to w in format
func RenderRoster(w io.Writer, snap *Snapshot, format string) error {
	roster := RosterOf(snap)

	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roster)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(roster); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(roster)
	default:
		return fmt.Errorf("unsupported roster format %q (use json, yaml or toml)", format)
	}
}
