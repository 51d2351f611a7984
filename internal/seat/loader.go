package seat

import (
	"context"
	"fmt"
	"log"
)

// Source lists a section's seats. ListAll is the preferred listing;
// ListSection is an older, more permissive one used when ListAll fails.
type Source interface {
	StudentSeatLookup
	ListAll(ctx context.Context, sectionID int64) ([]Seat, error)
	ListSection(ctx context.Context, sectionID int64) ([]Seat, error)
}

// State is a step of seat plan loading.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateAttemptSecondary
	StateAttemptFallback
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAttemptSecondary:
		return "attempt_secondary"
	case StateAttemptFallback:
		return "attempt_fallback"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Origin records which path produced a snapshot.
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginSecondary Origin = "secondary"
	OriginFallback  Origin = "fallback"
)

// LoadRequest describes one seat plan view.
type LoadRequest struct {
	SectionID       int64
	StudentID       int64
	EnrollmentCount int
	// Rows and Columns are the section's grid shape; listings are widened
	// to cover any seat outside it.
	Rows    int
	Columns int
}

// Result is the terminal state of a load.
type Result struct {
	State    State
	Origin   Origin
	Snapshot Snapshot
	Err      error
}

// Loader runs Idle -> Loading -> primary | secondary | fallback.
type Loader struct {
	source        Source
	reconstructor *Reconstructor
	observe       func(State)
}

// NewLoader creates a Loader. A nil reconstructor uses the defaults.
func NewLoader(source Source, reconstructor *Reconstructor) *Loader {
	if reconstructor == nil {
		reconstructor = NewReconstructor(0, 0, -1, 0)
	}
	return &Loader{source: source, reconstructor: reconstructor}
}

// Observe registers fn to be called on every state transition.
func (l *Loader) Observe(fn func(State)) {
	l.observe = fn
}

func (l *Loader) enter(s State) {
	if l.observe != nil {
		l.observe(s)
	}
}

// Load fetches the seat plan. Only a permission-class failure of the
// secondary listing leads to reconstruction; anything else ends in StateError.
func (l *Loader) Load(ctx context.Context, req LoadRequest) Result {
	l.enter(StateIdle)
	l.enter(StateLoading)

	seats, err := l.source.ListAll(ctx, req.SectionID)
	if err == nil {
		l.enter(StateSuccess)
		return Result{State: StateSuccess, Origin: OriginPrimary, Snapshot: listed(req, seats)}
	}
	log.Printf("Primary seat listing for section %d failed: %v", req.SectionID, err)

	l.enter(StateAttemptSecondary)
	seats, err = l.source.ListSection(ctx, req.SectionID)
	if err == nil {
		l.enter(StateSuccess)
		return Result{State: StateSuccess, Origin: OriginSecondary, Snapshot: listed(req, seats)}
	}

	if Classify(err) != FailurePermission {
		l.enter(StateError)
		return Result{State: StateError, Err: fmt.Errorf("unable to load seats for section %d: %w", req.SectionID, err)}
	}

	log.Printf("Warning: seat listing for section %d denied (%v); reconstructing from per-student lookups", req.SectionID, err)
	l.enter(StateAttemptFallback)
	snapshot := l.reconstructor.Reconstruct(ctx, l.source, ReconstructRequest{
		SectionID:       req.SectionID,
		RequesterID:     req.StudentID,
		EnrollmentCount: req.EnrollmentCount,
	})
	l.enter(StateSuccess)
	return Result{State: StateSuccess, Origin: OriginFallback, Snapshot: snapshot}
}

func listed(req LoadRequest, seats []Seat) Snapshot {
	rows, cols := req.Rows, req.Columns
	for _, s := range seats {
		if s.Row+1 > rows {
			rows = s.Row + 1
		}
		if s.Column+1 > cols {
			cols = s.Column + 1
		}
	}
	if seats == nil {
		seats = []Seat{}
	}
	return Snapshot{SectionID: req.SectionID, Rows: rows, Columns: cols, Seats: seats}
}
