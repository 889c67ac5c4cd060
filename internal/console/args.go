package console

import (
	"strconv"
	"strings"
	"time"

	"revue/internal/guildday"
)

// ArgKind is what an optional record argument turned out to be
type ArgKind int

const (
	ArgTurn ArgKind = iota
	ArgDate
	ArgMember
)

func (k ArgKind) String() string {
	switch k {
	case ArgTurn:
		return "turn"
	case ArgDate:
		return "date"
	default:
		return "member"
	}
}

// ClassifyRecordArg decides what an optional record argument is: an integer
// in 1..maxTurn is a turn, a YYYY-MM-DD string is a date, anything else names
// a member. Integers above the cap are member ids.
func ClassifyRecordArg(arg string, maxTurn int) ArgKind {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= maxTurn {
		return ArgTurn
	}
	if _, err := time.Parse(guildday.DateLayout, arg); err == nil {
		return ArgDate
	}
	return ArgMember
}

// recordArgs is a parsed add-record command
type recordArgs struct {
	Sequence int
	Boss     string
	Team     int
	Damage   int64
	Turn     int
	Date     string
	Member   string
}

// parseRecordArgs reads sequence,boss,team,damage followed by up to three
// optional arguments in any order. A later optional argument of the same kind
// replaces an earlier one.
func parseRecordArgs(args []string, maxTurn int) (recordArgs, bool) {
	if len(args) < 4 || len(args) > 7 {
		return recordArgs{}, false
	}

	var ra recordArgs
	var err error
	if ra.Sequence, err = strconv.Atoi(args[0]); err != nil {
		return recordArgs{}, false
	}
	if ra.Boss = args[1]; ra.Boss == "" {
		return recordArgs{}, false
	}
	if ra.Team, err = strconv.Atoi(args[2]); err != nil {
		return recordArgs{}, false
	}
	if ra.Damage, err = strconv.ParseInt(args[3], 10, 64); err != nil {
		return recordArgs{}, false
	}

	ra.Turn = maxTurn
	for _, arg := range args[4:] {
		if arg == "" {
			return recordArgs{}, false
		}
		switch ClassifyRecordArg(arg, maxTurn) {
		case ArgTurn:
			ra.Turn, _ = strconv.Atoi(arg)
		case ArgDate:
			ra.Date = arg
		case ArgMember:
			ra.Member = arg
		}
	}
	return ra, true
}

// splitArgs splits on sep and trims every element. An empty input yields no args.
func splitArgs(raw, sep string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
