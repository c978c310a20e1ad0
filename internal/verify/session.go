package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/logging"
	"oakwood/internal/services"
	"oakwood/internal/services/openlibrary"
)

// State identifies where a verification session is in its lifecycle.
type State string

const (
	StateLoading      State = "loading"
	StateComparing    State = "comparing"
	StateResolving    State = "resolving"
	StateAutoVerified State = "auto_verified"
	StateSummarized   State = "summarized"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

// Decision is the user's choice for one discrepancy. KeepLocal and Skip
// both leave the field untouched; they are recorded under separate labels
// so the outcome summary can distinguish a considered keep from a skip.
type Decision string

const (
	DecisionKeepLocal   Decision = "keep_local"
	DecisionUseExternal Decision = "use_external"
	DecisionSkip        Decision = "skip"
)

// ErrSessionActive reports that another session already holds the
// identifier. Sessions for different identifiers run independently.
var ErrSessionActive = errors.New("verification already in progress")

// Event is emitted on the session channel as the background fetch
// resolves. The channel closes once the fetch phase has settled; decision
// handling after that point is synchronous.
type Event struct {
	State         State
	Discrepancies []Discrepancy
	Err           error
}

// Prompt describes the discrepancy awaiting a decision, with its 1-based
// position for display.
type Prompt struct {
	Discrepancy Discrepancy
	Position    int
	Total       int
}

// Verifier creates reconciliation sessions against one store, metadata
// fetcher, and audit log. It enforces at most one live session per
// identifier.
type Verifier struct {
	store   *catalog.Store
	fetcher openlibrary.Fetcher
	audit   *activity.Log
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

// NewVerifier wires a verifier. A nil logger disables logging.
func NewVerifier(store *catalog.Store, fetcher openlibrary.Fetcher, audit *activity.Log, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		store:   store,
		fetcher: fetcher,
		audit:   audit,
		logger:  logger.With("component", "verify"),
		now:     time.Now,
		active:  make(map[string]struct{}),
	}
}

func (v *Verifier) acquire(isbn string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.active[isbn]; ok {
		return false
	}
	v.active[isbn] = struct{}{}
	return true
}

func (v *Verifier) release(isbn string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.active, isbn)
}

// Session is a single reconciliation run for one identifier. Methods are
// safe for use from the goroutine consuming Events.
type Session struct {
	verifier *Verifier
	isbn     string
	book     *catalog.Book
	events   chan Event

	mu            sync.Mutex
	state         State
	committing    bool
	discrepancies []Discrepancy
	decisions     []Decision
	failure       error
	result        *Result
}

// Start looks up the local record and launches the background fetch. It
// fails with a not-found marker when the identifier has no catalogue row
// and with ErrSessionActive when a session for it is already live.
func (v *Verifier) Start(ctx context.Context, isbn string) (*Session, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, services.Wrap(services.ErrValidation, "verify", "start", "isbn must not be empty", nil)
	}
	book, err := v.store.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, services.Wrap(services.ErrNotFound, "verify", "start",
			fmt.Sprintf("no catalogue record for isbn %s", isbn), nil)
	}
	if !v.acquire(isbn) {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, isbn)
	}

	session := &Session{
		verifier: v,
		isbn:     isbn,
		book:     book,
		events:   make(chan Event, 4),
		state:    StateLoading,
	}
	go session.load(ctx)
	return session, nil
}

// Events returns the fetch-phase event channel. It closes after the
// session reaches Resolving, AutoVerified, or Failed.
func (s *Session) Events() <-chan Event {
	return s.events
}

// ISBN reports the identifier the session is reconciling.
func (s *Session) ISBN() string {
	return s.isbn
}

// Book returns the local record snapshot taken at session start.
func (s *Session) Book() *catalog.Book {
	return s.book
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Failure returns the terminal error for a Failed session, nil otherwise.
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Discrepancies returns the diff computed by the fetch phase.
func (s *Session) Discrepancies() []Discrepancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Discrepancy, len(s.discrepancies))
	copy(out, s.discrepancies)
	return out
}

func (s *Session) load(ctx context.Context) {
	defer close(s.events)

	remote, err := s.verifier.fetcher.FetchBook(ctx, s.isbn)
	if err != nil {
		if s.fail(err) {
			s.events <- Event{State: StateFailed, Err: err}
		}
		return
	}

	discrepancies := Diff(s.book, remote)
	if len(discrepancies) == 0 {
		s.autoVerify(ctx)
		return
	}

	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.discrepancies = discrepancies
	s.decisions = make([]Decision, 0, len(discrepancies))
	s.state = StateComparing
	s.mu.Unlock()
	s.events <- Event{State: StateComparing, Discrepancies: discrepancies}

	s.mu.Lock()
	// A cancel can land between the Comparing event and this transition;
	// it must stay terminal.
	if s.state != StateComparing {
		s.mu.Unlock()
		return
	}
	s.state = StateResolving
	s.mu.Unlock()
	s.events <- Event{State: StateResolving}
}

func (s *Session) autoVerify(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.committing = true
	s.mu.Unlock()

	patch := s.verifier.verificationStamp()
	outcome, err := s.verifier.Commit(ctx, s.isbn, patch, nil, nil)
	if err != nil {
		if s.fail(err) {
			s.events <- Event{State: StateFailed, Err: err}
		}
		return
	}

	s.mu.Lock()
	s.state = StateAutoVerified
	s.result = &Result{
		State:    StateAutoVerified,
		Book:     outcome.Book,
		Patch:    patch,
		AuditErr: outcome.AuditErr,
	}
	s.mu.Unlock()
	s.verifier.release(s.isbn)
	s.verifier.logger.Info("record auto-verified", "isbn", s.isbn)
	s.events <- Event{State: StateAutoVerified}
}

// fail marks the session terminal. It reports whether the transition
// happened so the load goroutine knows to emit the event; callers outside
// that goroutine must not touch the channel.
func (s *Session) fail(err error) bool {
	s.mu.Lock()
	if s.state == StateCancelled {
		s.mu.Unlock()
		return false
	}
	s.state = StateFailed
	s.failure = err
	s.mu.Unlock()
	s.verifier.release(s.isbn)
	s.verifier.logger.Warn("verification failed", "isbn", s.isbn, "error", err)
	return true
}

// CurrentPrompt returns the active discrepancy. It is only meaningful
// while the session is resolving.
func (s *Session) CurrentPrompt() (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolving {
		return Prompt{}, fmt.Errorf("no discrepancy awaiting a decision in state %s", s.state)
	}
	idx := len(s.decisions)
	return Prompt{
		Discrepancy: s.discrepancies[idx],
		Position:    idx + 1,
		Total:       len(s.discrepancies),
	}, nil
}

// SubmitDecision records the decision for the current discrepancy and
// advances. The final decision triggers the commit. Submissions after the
// session has settled are no-ops; submissions before the fetch resolves
// are errors.
func (s *Session) SubmitDecision(ctx context.Context, decision Decision) error {
	s.mu.Lock()
	switch s.state {
	case StateSummarized, StateAutoVerified, StateFailed, StateCancelled:
		s.mu.Unlock()
		return nil
	case StateLoading, StateComparing:
		s.mu.Unlock()
		return services.Wrap(services.ErrValidation, "verify", "decide", "no discrepancy awaiting a decision", nil)
	}

	switch decision {
	case DecisionKeepLocal, DecisionUseExternal, DecisionSkip:
	default:
		s.mu.Unlock()
		return services.Wrap(services.ErrValidation, "verify", "decide",
			fmt.Sprintf("unknown decision %q", decision), nil)
	}

	s.decisions = append(s.decisions, decision)
	if len(s.decisions) < len(s.discrepancies) {
		s.mu.Unlock()
		return nil
	}
	s.committing = true
	s.mu.Unlock()
	return s.summarize(ctx)
}

func (s *Session) summarize(ctx context.Context) error {
	s.mu.Lock()
	patch := s.verifier.verificationStamp()
	decisions := make(map[FieldID]Decision, len(s.discrepancies))
	var updated, skipped []FieldID
	for i, disc := range s.discrepancies {
		decisions[disc.Field] = s.decisions[i]
		if s.decisions[i] == DecisionUseExternal {
			patch[string(disc.Field)] = disc.value
			updated = append(updated, disc.Field)
		} else {
			skipped = append(skipped, disc.Field)
		}
	}
	s.mu.Unlock()

	outcome, err := s.verifier.Commit(ctx, s.isbn, patch, updated, skipped)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.state = StateSummarized
	s.result = &Result{
		State:     StateSummarized,
		Book:      outcome.Book,
		Patch:     patch,
		Updated:   updated,
		Skipped:   skipped,
		Decisions: decisions,
		AuditErr:  outcome.AuditErr,
	}
	s.mu.Unlock()
	s.verifier.release(s.isbn)
	s.verifier.logger.Info("verification committed",
		"isbn", s.isbn, "updated", len(updated), "skipped", len(skipped))
	return nil
}

// Cancel abandons the session, discarding every recorded decision. Nothing
// is written to the store or the audit log. Cancelling a settled session,
// or one whose commit is already underway, has no effect.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return
	}
	switch s.state {
	case StateSummarized, StateAutoVerified, StateFailed, StateCancelled:
		s.mu.Unlock()
		return
	}
	s.state = StateCancelled
	s.discrepancies = nil
	s.decisions = nil
	s.mu.Unlock()
	s.verifier.release(s.isbn)
	s.verifier.logger.Info("verification cancelled", "isbn", s.isbn)
}

// Result returns the session outcome. It is only available once the
// session has reached Summarized or AutoVerified.
func (s *Session) Result() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSummarized, StateAutoVerified:
		return *s.result, nil
	}
	return Result{}, fmt.Errorf("no result available in state %s", s.state)
}
