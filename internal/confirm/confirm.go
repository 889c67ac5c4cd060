// Package confirm holds destructive or multi-step actions until the
// conversation that started them says yes.
//
// Each conversation key owns at most one Session. A session captures the exact
// mutation when it begins; the answer only decides whether that mutation runs.
// Sessions that end, expire or run out of retries are removed, and a removed
// session's action never runs.
package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"revue/internal/storage"
)

// State of a session
type State string

const (
	StateIdle         State = "IDLE"
	StatePending      State = "PENDING_CONFIRMATION"
	StateAccumulating State = "ACCUMULATING"
	StateCommitted    State = "COMMITTED"
	StateAborted      State = "ABORTED"
)

// Terminal reports whether the session is gone after this state
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// Prompt tells the driver what to say next
type Prompt string

const (
	PromptConfirm   Prompt = "confirm"    // ask yes or no
	PromptRetry     Prompt = "retry"      // answer not understood, ask again
	PromptPair      Prompt = "pair"       // ask for another card,modifier pair
	PromptNeedPair  Prompt = "need_pair"  // confirm with nothing accumulated
	PromptDone      Prompt = "done"       // action ran, see Outcome
	PromptAborted   Prompt = "aborted"    // declined by the user
	PromptExhausted Prompt = "exhausted"  // too many invalid answers
	PromptExpired   Prompt = "expired"    // idle longer than the TTL
	PromptNoSession Prompt = "no_session" // nothing pending for this key
)

// Outcome is what a committed action reports
type Outcome struct {
	Status storage.Status `json:"status"`
	Detail string         `json:"detail,omitempty"`
}

// OutcomeOf adapts a repository result
func OutcomeOf[T any](r storage.Result[T]) Outcome {
	return Outcome{Status: r.Status, Detail: r.Detail}
}

// Pending is a captured mutation awaiting confirmation
type Pending struct {
	Description string
	Commit      func(ctx context.Context) Outcome
}

// TeamCommit persists an accumulated team
type TeamCommit func(ctx context.Context, team storage.Team) Outcome

// Reply is returned by every transition
type Reply struct {
	SessionID   string   `json:"sessionId,omitempty"`
	State       State    `json:"state"`
	Prompt      Prompt   `json:"prompt"`
	Description string   `json:"description,omitempty"`
	Pairs       int      `json:"pairs,omitempty"`
	RetriesLeft int      `json:"retriesLeft,omitempty"`
	Outcome     *Outcome `json:"outcome,omitempty"`
}

// Answer is the classification of a yes/no reply
type Answer int

const (
	AnswerOther Answer = iota
	AnswerYes
	AnswerNo
)

var (
	affirmative = map[string]bool{"yes": true, "y": true, "是": true, "确认": true, "确定": true}
	negative    = map[string]bool{"no": true, "n": true, "否": true, "取消": true}
)

// Classify maps input onto the fixed token set, ignoring case and surrounding space
func Classify(input string) Answer {
	token := strings.ToLower(strings.TrimSpace(input))
	switch {
	case affirmative[token]:
		return AnswerYes
	case negative[token]:
		return AnswerNo
	default:
		return AnswerOther
	}
}

// classifyControl extends the yes/no tokens with the accumulation verbs
func classifyControl(input string) Answer {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "confirm", "done":
		return AnswerYes
	case "abort":
		return AnswerNo
	}
	return Classify(input)
}

// Options tune session lifetime and pair parsing
type Options struct {
	TTL           time.Duration
	MaxRetries    int
	SweepInterval time.Duration
	// Separator splits a "card_id<sep>modifier" answer
	Separator string
}

// DefaultOptions returns the session defaults
func DefaultOptions() Options {
	return Options{
		TTL:           5 * time.Minute,
		MaxRetries:    3,
		SweepInterval: time.Minute,
		Separator:     storage.ListSeparator,
	}
}

// Session is one conversation's pending action
type Session struct {
	ID          string
	Key         string
	State       State
	Description string
	Started     time.Time

	touched    time.Time
	retries    int
	commit     func(ctx context.Context) Outcome
	team       storage.Team
	teamCommit TeamCommit
}

// Manager owns the sessions of every conversation
type Manager struct {
	opts     Options
	logger   *slog.Logger
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates a session manager
func NewManager(opts Options, logger *slog.Logger) *Manager {
	defaults := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = defaults.TTL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaults.MaxRetries
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaults.SweepInterval
	}
	if opts.Separator == "" {
		opts.Separator = defaults.Separator
	}
	return &Manager{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Begin opens a PENDING_CONFIRMATION session for key, replacing any session
// the key already had.
func (m *Manager) Begin(key string, p Pending) Reply {
	s := m.open(key, StatePending, p.Description)
	s.commit = p.Commit
	return Reply{SessionID: s.ID, State: s.State, Prompt: PromptConfirm, Description: s.Description}
}

// BeginTeam opens an ACCUMULATING session that collects card,modifier pairs
// for team teamID of memberID.
func (m *Manager) BeginTeam(key, memberID string, teamID int, commit TeamCommit) Reply {
	desc := fmt.Sprintf("team %d of %s", teamID, memberID)
	s := m.open(key, StateAccumulating, desc)
	s.team = storage.Team{MemberID: memberID, TeamID: teamID, Cards: []string{}, Modifiers: []string{}}
	s.teamCommit = commit
	return Reply{SessionID: s.ID, State: s.State, Prompt: PromptPair, Description: desc}
}

func (m *Manager) open(key string, state State, desc string) *Session {
	now := m.now()
	s := &Session{
		ID:          uuid.New().String(),
		Key:         key,
		State:       state,
		Description: desc,
		Started:     now,
		touched:     now,
	}

	m.mu.Lock()
	if prev, ok := m.sessions[key]; ok {
		m.logger.Debug("Replacing pending session", "key", key, "session", prev.ID)
	}
	m.sessions[key] = s
	m.mu.Unlock()

	m.logger.Debug("Session started", "key", key, "session", s.ID, "state", string(state))
	return s
}

// Respond feeds one line of input to the key's session. Commit runs outside
// the manager lock, after the session has been removed.
func (m *Manager) Respond(ctx context.Context, key, input string) Reply {
	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		m.mu.Unlock()
		return Reply{State: StateIdle, Prompt: PromptNoSession}
	}
	if m.expired(s) {
		delete(m.sessions, key)
		m.mu.Unlock()
		m.logger.Debug("Session expired", "key", key, "session", s.ID)
		return Reply{SessionID: s.ID, State: StateAborted, Prompt: PromptExpired, Description: s.Description}
	}

	var reply Reply
	var run func(context.Context) Outcome
	if s.State == StateAccumulating {
		reply, run = m.accumulate(s, input)
	} else {
		reply, run = m.decide(s, input)
	}
	if reply.State.Terminal() {
		delete(m.sessions, key)
	} else {
		s.touched = m.now()
	}
	m.mu.Unlock()

	if run != nil {
		outcome := run(ctx)
		reply.Outcome = &outcome
		m.logger.Debug("Session committed", "key", key, "session", s.ID, "status", outcome.Status.String())
	} else if reply.State == StateAborted {
		m.logger.Debug("Session aborted", "key", key, "session", s.ID, "prompt", string(reply.Prompt))
	}
	return reply
}

// decide handles a PENDING_CONFIRMATION session; m.mu is held
func (m *Manager) decide(s *Session, input string) (Reply, func(context.Context) Outcome) {
	reply := Reply{SessionID: s.ID, Description: s.Description}
	switch Classify(input) {
	case AnswerYes:
		reply.State, reply.Prompt = StateCommitted, PromptDone
		return reply, s.commit
	case AnswerNo:
		reply.State, reply.Prompt = StateAborted, PromptAborted
		return reply, nil
	}
	return m.retry(s, reply, PromptRetry), nil
}

// accumulate handles an ACCUMULATING session; m.mu is held
func (m *Manager) accumulate(s *Session, input string) (Reply, func(context.Context) Outcome) {
	reply := Reply{SessionID: s.ID, Description: s.Description, Pairs: len(s.team.Cards)}

	switch classifyControl(input) {
	case AnswerYes:
		if len(s.team.Cards) == 0 {
			return m.retry(s, reply, PromptNeedPair), nil
		}
		team, commit := s.team, s.teamCommit
		reply.State, reply.Prompt = StateCommitted, PromptDone
		return reply, func(ctx context.Context) Outcome { return commit(ctx, team) }
	case AnswerNo:
		reply.State, reply.Prompt = StateAborted, PromptAborted
		return reply, nil
	}

	card, modifier, ok := parsePair(input, m.opts.Separator)
	if !ok {
		return m.retry(s, reply, PromptRetry), nil
	}
	s.team.Cards = append(s.team.Cards, card)
	s.team.Modifiers = append(s.team.Modifiers, modifier)
	reply.State, reply.Prompt, reply.Pairs = StateAccumulating, PromptPair, len(s.team.Cards)
	return reply, nil
}

// retry counts an invalid answer and aborts once the budget is spent
func (m *Manager) retry(s *Session, reply Reply, prompt Prompt) Reply {
	s.retries++
	if s.retries >= m.opts.MaxRetries {
		reply.State, reply.Prompt = StateAborted, PromptExhausted
		return reply
	}
	reply.State, reply.Prompt = s.State, prompt
	reply.RetriesLeft = m.opts.MaxRetries - s.retries
	return reply
}

// parsePair splits "card_id<sep>modifier"; both halves must be non-empty
func parsePair(input, sep string) (card, modifier string, ok bool) {
	parts := strings.Split(strings.TrimSpace(input), sep)
	if len(parts) != 2 {
		return "", "", false
	}
	card, modifier = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if card == "" || modifier == "" {
		return "", "", false
	}
	return card, modifier, true
}

// Cancel drops the key's session without running it
func (m *Manager) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[key]
	delete(m.sessions, key)
	return ok
}

// Lookup returns the live state of the key's session
func (m *Manager) Lookup(key string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok || m.expired(s) {
		return StateIdle, false
	}
	return s.State, true
}

// Active returns the number of sessions held, expired ones included until swept
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session) bool {
	return m.now().Sub(s.touched) > m.opts.TTL
}

// StartSweeper removes expired sessions every SweepInterval until ctx is done
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.opts.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// sweep removes expired sessions and returns how many went
func (m *Manager) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, key)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug("Session sweep",
			"removed_sessions", removed,
			"remaining", len(m.sessions),
		)
	}
	return removed
}
