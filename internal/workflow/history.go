package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// Serialized history layout. Existing records depend on it byte for byte.
const (
	historyEntrySeparator  = "\n\n"
	historyFieldSeparator  = " | "
	historyTimestampLayout = "02/01/2006 15:04:05 COT"
	historyStatePrefix     = "State: '"
	historyActorPrefix     = "Responsible: "
	historyNotePrefix      = "Note: "
	historyNoteMaxRunes    = 100
	defaultHistoryActor    = "Admin"
)

// HistoryEntry is one parsed state change.
type HistoryEntry struct {
	At    time.Time
	State domain.RequestState
	Actor string
	Note  string
}

// HistoryTracker appends to and reads the state history field. The log is
// best effort: a malformed entry is dropped with a warning and never aborts
// the caller.
type HistoryTracker struct {
	loc    *time.Location
	logger *zap.Logger
	diag   Diagnostics
}

// NewHistoryTracker builds a tracker that stamps entries in loc.
func NewHistoryTracker(loc *time.Location, logger *zap.Logger, diag Diagnostics) *HistoryTracker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if diag == nil {
		diag = noopDiagnostics{}
	}
	return &HistoryTracker{loc: loc, logger: logger, diag: diag}
}

// Append returns log with one new entry for state. The input is never
// modified; prior content is kept verbatim.
func (t *HistoryTracker) Append(log string, state domain.RequestState, actor, note string, at time.Time) string {
	entry := t.FormatEntry(HistoryEntry{At: at, State: state, Actor: actor, Note: note})
	if strings.TrimSpace(log) == "" {
		return entry
	}
	return log + historyEntrySeparator + entry
}

// FormatEntry serializes a single entry.
func (t *HistoryTracker) FormatEntry(e HistoryEntry) string {
	actor := sanitizeHistoryField(e.Actor)
	if actor == "" {
		actor = defaultHistoryActor
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.At.In(t.loc).Format(historyTimestampLayout))
	b.WriteString("] ")
	b.WriteString(historyStatePrefix)
	b.WriteString(string(e.State))
	b.WriteString("'")
	b.WriteString(historyFieldSeparator)
	b.WriteString(historyActorPrefix)
	b.WriteString(actor)
	if note := truncateRunes(sanitizeHistoryField(e.Note), historyNoteMaxRunes); note != "" {
		b.WriteString(historyFieldSeparator)
		b.WriteString(historyNotePrefix)
		b.WriteString(note)
	}
	return b.String()
}

// Parse returns the well-formed entries of log in insertion order.
func (t *HistoryTracker) Parse(log string) []HistoryEntry {
	entries := []HistoryEntry{}
	for _, raw := range splitHistoryEntries(log) {
		entry, err := t.parseEntry(raw)
		if err != nil {
			t.diag.HistoryParseWarning()
			t.logger.Warn("dropping malformed history entry", zap.String("entry", raw), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// MostRecentState returns the state of the last well-formed entry.
func (t *HistoryTracker) MostRecentState(log string) (domain.RequestState, bool) {
	entries := t.Parse(log)
	if len(entries) == 0 {
		return "", false
	}
	return entries[len(entries)-1].State, true
}

// Render formats log newest first for display. It is not a data source.
func (t *HistoryTracker) Render(log string) string {
	return t.RenderEntries(t.Parse(log))
}

// RenderEntries formats already parsed entries newest first.
func (t *HistoryTracker) RenderEntries(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "Sin historial de cambios"
	}
	var b strings.Builder
	b.WriteString("Historial de Cambios de Estado:\n")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "\n%d. %s - %s", len(entries)-i, e.State, e.At.In(t.loc).Format(historyTimestampLayout))
		if e.Actor != "" {
			fmt.Fprintf(&b, " (%s)", e.Actor)
		}
		if e.Note != "" {
			fmt.Fprintf(&b, ": %s", e.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (t *HistoryTracker) parseEntry(raw string) (HistoryEntry, error) {
	if !strings.HasPrefix(raw, "[") {
		return HistoryEntry{}, errors.New("missing timestamp")
	}
	end := strings.Index(raw, "] ")
	if end < 0 {
		return HistoryEntry{}, errors.New("unterminated timestamp")
	}
	at, err := time.ParseInLocation(historyTimestampLayout, raw[1:end], t.loc)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("timestamp: %w", err)
	}
	body := raw[end+2:]

	// Entries written before actors were recorded carry only the state label.
	if !strings.HasPrefix(body, historyStatePrefix) {
		state, ok := ParseState(body)
		if !ok {
			return HistoryEntry{}, fmt.Errorf("unknown state %q", body)
		}
		return HistoryEntry{At: at, State: state}, nil
	}

	fields := strings.Split(body, historyFieldSeparator)
	stateField := fields[0]
	if !strings.HasSuffix(stateField, "'") || len(stateField) <= len(historyStatePrefix) {
		return HistoryEntry{}, errors.New("malformed state field")
	}
	state, ok := ParseState(stateField[len(historyStatePrefix) : len(stateField)-1])
	if !ok {
		return HistoryEntry{}, fmt.Errorf("unknown state in %q", stateField)
	}
	if len(fields) < 2 || !strings.HasPrefix(fields[1], historyActorPrefix) {
		return HistoryEntry{}, errors.New("missing responsible field")
	}
	entry := HistoryEntry{
		At:    at,
		State: state,
		Actor: strings.TrimSpace(strings.TrimPrefix(fields[1], historyActorPrefix)),
	}
	if len(fields) > 2 {
		note := strings.Join(fields[2:], historyFieldSeparator)
		if !strings.HasPrefix(note, historyNotePrefix) {
			return HistoryEntry{}, errors.New("unexpected trailing field")
		}
		entry.Note = strings.TrimPrefix(note, historyNotePrefix)
	}
	return entry, nil
}

// splitHistoryEntries cuts the log into candidate entries, one per non-empty
// line. Older logs separated entries with a single newline instead of a blank
// line; both layouts split the same way.
func splitHistoryEntries(log string) []string {
	log = strings.ReplaceAll(log, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(log, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// sanitizeHistoryField keeps a value on one line and free of field separators.
// Bare pipes are kept.
func sanitizeHistoryField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, historyFieldSeparator, " / ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
