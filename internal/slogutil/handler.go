// Package slogutil provides the revue log handler and logger construction helpers.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// leadingKeys are printed first, in this order, so that lines about the same
// operation or row line up when grepping store.log.
var leadingKeys = []string{"op", "code", "member_id", "boss_id", "record_id", "team_id", "key"}

// secretKeys never reach a log sink in clear text
var secretKeys = map[string]bool{
	"password": true,
	"account":  true,
	"seal_key": true,
	"sealKey":  true,
}

const redacted = "***"

// Redact is a ReplaceAttr func that masks credential attributes. The JSON
// handler uses it; LineHandler applies it itself.
func Redact(groups []string, a slog.Attr) slog.Attr {
	if secretKeys[a.Key] && !isEmpty(a.Value) {
		return slog.String(a.Key, redacted)
	}
	return a
}

// LineHandler writes one record per line:
//
//	2024-05-10T04:00:00Z [info] Record added | op=record.add member_id=1001 boss_id=101 damage=500
type LineHandler struct {
	w       io.Writer
	level   slog.Leveler
	prefix  string
	preset  []slog.Attr
	replace func([]string, slog.Attr) slog.Attr
	mu      *sync.Mutex
}

// NewLineHandler creates a line handler. opts.ReplaceAttr, when set, runs
// after redaction.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	h := &LineHandler{w: w, level: slog.LevelInfo, mu: &sync.Mutex{}}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.replace = opts.ReplaceAttr
	}
	return h
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.preset)+r.NumAttrs())
	attrs = append(attrs, h.preset...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = h.flatten(attrs, h.prefix, a)
		return true
	})

	var b strings.Builder
	b.WriteString(r.Time.UTC().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(levelString(r.Level))
	b.WriteString("] ")
	b.WriteString(r.Message)
	if len(attrs) > 0 {
		b.WriteString(" |")
		for _, a := range ordered(attrs) {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			b.WriteByte('=')
			b.WriteString(formatValue(a.Value))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = make([]slog.Attr, len(h.preset), len(h.preset)+len(attrs))
	copy(next.preset, h.preset)
	for _, a := range attrs {
		next.preset = h.flatten(next.preset, h.prefix, a)
	}
	return &next
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// flatten resolves a, expands group values into dotted keys and appends the
// redacted result to dst. Empty keys and empty groups are dropped.
func (h *LineHandler) flatten(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = h.flatten(dst, inner, ga)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}

	a = Redact(nil, a)
	if h.replace != nil {
		if a = h.replace(groupsOf(prefix), a); a.Key == "" {
			return dst
		}
	}
	a.Key = prefix + a.Key
	return append(dst, a)
}

// ordered moves the leading keys to the front and keeps the rest in the
// order they were logged. Group prefixes are ignored when matching.
func ordered(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	used := make([]bool, len(attrs))
	for _, key := range leadingKeys {
		for i, a := range attrs {
			if !used[i] && baseKey(a.Key) == key {
				out = append(out, a)
				used[i] = true
			}
		}
	}
	for i, a := range attrs {
		if !used[i] {
			out = append(out, a)
		}
	}
	return out
}

func baseKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func groupsOf(prefix string) []string {
	if prefix == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(prefix, "."), ".")
}

func isEmpty(v slog.Value) bool {
	return v.Kind() == slog.KindString && v.String() == ""
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// formatValue quotes strings that would otherwise break key=value parsing
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.Quote(s)
	}
	return s
}
