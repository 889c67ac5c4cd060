// Package season reads boss season files.
//
// A season file lists the four bosses of every level and the level range
// they repeat over:
//
//	start = 1
//	end = 3
//
//	[[boss]]
//	name = "雪豹"
//	health = 6000000
//
// It decodes to a storage.BossRange for BossRepository.AddRange.
package season

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"revue/internal/errors"
	"revue/internal/storage"
)

// File is the on-disk layout of a season file
type File struct {
	Name   string  `toml:"name,omitempty"`
	Start  int     `toml:"start"`
	End    int     `toml:"end"`
	Bosses []Entry `toml:"boss"`
}

// Entry is one boss slot
type Entry struct {
	Name   string `toml:"name"`
	Health int64  `toml:"health"`
}

// LoadFile decodes a season file from disk
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.New(errors.MalformedInput, "failed to parse season file", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return &f, nil
}

// Decode reads a season file from r
func Decode(r io.Reader) (*File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.New(errors.MalformedInput, "failed to parse season file", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	return errors.New(errors.MalformedInput, "unknown keys in season file: "+strings.Join(keys, ", "), nil)
}

// Range converts the file to a boss range. Exactly four bosses are required.
func (f *File) Range() (storage.BossRange, error) {
	if len(f.Bosses) != storage.BossSlots {
		return storage.BossRange{}, errors.New(errors.MalformedInput,
			fmt.Sprintf("season file has %d bosses, want %d", len(f.Bosses), storage.BossSlots), nil)
	}

	rng := storage.BossRange{
		Names:   make([]string, 0, storage.BossSlots),
		Healths: make([]int64, 0, storage.BossSlots),
		Start:   f.Start,
		End:     f.End,
	}
	for _, b := range f.Bosses {
		rng.Names = append(rng.Names, strings.TrimSpace(b.Name))
		rng.Healths = append(rng.Healths, b.Health)
	}
	return rng, nil
}

// Encode writes f in season file layout
func (f *File) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// FromRange builds a season file from a range
func FromRange(rng storage.BossRange) *File {
	f := &File{Start: rng.Start, End: rng.End}
	for i := range rng.Names {
		var health int64
		if i < len(rng.Healths) {
			health = rng.Healths[i]
		}
		f.Bosses = append(f.Bosses, Entry{Name: rng.Names[i], Health: health})
	}
	return f
}
