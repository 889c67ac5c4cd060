package season

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"revue/internal/errors"
)

const sample = `
name = "2026-03"
start = 1
end = 3

[[boss]]
name = "雪豹"
health = 6000000

[[boss]]
name = "B"
health = 8000000

[[boss]]
name = "C"
health = 10000000

[[boss]]
name = "D"
health = 12000000
`

func TestDecodeRange(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rng, err := f.Range()
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if rng.Start != 1 || rng.End != 3 {
		t.Errorf("range = [%d, %d), want [1, 3)", rng.Start, rng.End)
	}

	bosses := rng.Expand()
	if len(bosses) != 8 {
		t.Fatalf("Expand() = %d bosses, want 8", len(bosses))
	}
	if bosses[0].BossID != 101 || bosses[0].Alias != "R1雪豹" || bosses[0].Health != 6000000 {
		t.Errorf("first boss = %+v", bosses[0])
	}
	if bosses[7].BossID != 204 || bosses[7].Alias != "R2D" {
		t.Errorf("last boss = %+v", bosses[7])
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"syntax", "start = "},
		{"unknown key", "start = 1\nend = 2\nfoo = 3\n"},
		{"wrong type", "start = \"one\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if errors.CodeOf(err) != errors.MalformedInput {
				t.Errorf("Decode() error = %v, want MALFORMED_INPUT", err)
			}
		})
	}
}

func TestRangeNeedsFourBosses(t *testing.T) {
	f := &File{Start: 1, End: 2, Bosses: []Entry{{Name: "A", Health: 1}}}
	if _, err := f.Range(); errors.CodeOf(err) != errors.MalformedInput {
		t.Errorf("Range() error = %v, want MALFORMED_INPUT", err)
	}
}

func TestLoadFileAndEncode(t *testing.T) {
	f, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	rng, _ := f.Range()

	var buf bytes.Buffer
	if err := FromRange(rng).Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "season.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(loaded.Bosses) != 4 || loaded.Bosses[0].Name != "雪豹" || loaded.End != 3 {
		t.Errorf("LoadFile() = %+v", loaded)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFile() of a missing file succeeded")
	}
}
