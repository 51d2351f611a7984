package seat

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultFallbackRows     = 5
	DefaultFallbackColumns  = 6
	DefaultProbeLimit       = 30
	DefaultProbeConcurrency = 4

	// MaxFallbackColumns keeps PlaceholderID unique across the grid.
	MaxFallbackColumns = 10
)

// StudentSeatLookup finds the seat a student holds in a section. It returns
// ErrNoSeat (possibly wrapped) when the student has none.
type StudentSeatLookup interface {
	StudentSeat(ctx context.Context, sectionID, studentID int64) (Seat, error)
}

// Reconstructor rebuilds a displayable seat plan from per-student lookups
// when the section listing is not accessible.
type Reconstructor struct {
	Rows        int
	Columns     int
	ProbeLimit  int
	Concurrency int
}

// NewReconstructor fills non-positive settings with the defaults and caps
// columns at MaxFallbackColumns.
func NewReconstructor(rows, columns, probeLimit, concurrency int) *Reconstructor {
	if rows <= 0 {
		rows = DefaultFallbackRows
	}
	if columns <= 0 {
		columns = DefaultFallbackColumns
	}
	if columns > MaxFallbackColumns {
		log.Printf("Warning: %d fallback columns requested; using %d", columns, MaxFallbackColumns)
		columns = MaxFallbackColumns
	}
	if probeLimit < 0 {
		probeLimit = DefaultProbeLimit
	}
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}
	return &Reconstructor{Rows: rows, Columns: columns, ProbeLimit: probeLimit, Concurrency: concurrency}
}

// ReconstructRequest identifies who is asking and how many students to expect.
type ReconstructRequest struct {
	SectionID       int64
	RequesterID     int64
	EnrollmentCount int
}

// PlaceholderID is the id given to a synthesized empty seat. Ids are unique
// while column < MaxFallbackColumns.
func PlaceholderID(row, column int) int64 {
	return -int64(row*10 + column + 1)
}

// Candidates returns the student ids to probe: 1..ProbeLimit without the
// requester, at most enrollmentCount of them.
func (r *Reconstructor) Candidates(requesterID int64, enrollmentCount int) []int64 {
	var ids []int64
	for id := int64(1); id <= int64(r.ProbeLimit) && len(ids) < enrollmentCount; id++ {
		if id == requesterID {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Reconstruct always returns a Rows x Columns snapshot. Lookup failures are
// ignored; positions nobody was found in become placeholders.
func (r *Reconstructor) Reconstruct(ctx context.Context, lookup StudentSeatLookup, req ReconstructRequest) Snapshot {
	var own *Seat
	if s, err := lookup.StudentSeat(ctx, req.SectionID, req.RequesterID); err == nil {
		s = claim(s, req.RequesterID)
		own = &s
	} else if !errors.Is(err, ErrNoSeat) {
		log.Printf("Warning: own seat lookup for student %d in section %d failed: %v", req.RequesterID, req.SectionID, err)
	}

	found := r.probe(ctx, lookup, req)
	log.Printf("Reconstructed section %d from %d probed seats (own seat known: %t)", req.SectionID, len(found), own != nil)

	return r.synthesize(req.SectionID, own, found)
}

func (r *Reconstructor) probe(ctx context.Context, lookup StudentSeatLookup, req ReconstructRequest) []Seat {
	var (
		mu    sync.Mutex
		found []Seat
		g     errgroup.Group
	)
	g.SetLimit(r.Concurrency)

	for _, studentID := range r.Candidates(req.RequesterID, req.EnrollmentCount) {
		studentID := studentID
		g.Go(func() error {
			s, err := lookup.StudentSeat(ctx, req.SectionID, studentID)
			if err != nil {
				return nil
			}
			mu.Lock()
			found = append(found, claim(s, studentID))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return found
}

// claim makes sure a seat returned for studentID names that student.
func claim(s Seat, studentID int64) Seat {
	if s.OccupantID == nil {
		id := studentID
		s.OccupantID = &id
	}
	return s
}

func (r *Reconstructor) synthesize(sectionID int64, own *Seat, found []Seat) Snapshot {
	// Lowest id wins a contested position so the result does not depend on probe order.
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })

	byPosition := make(map[Coordinate]Seat, len(found)+1)
	place := func(s Seat) {
		if s.SectionID != 0 && s.SectionID != sectionID {
			return
		}
		if s.Row < 0 || s.Row >= r.Rows || s.Column < 0 || s.Column >= r.Columns {
			return
		}
		if _, taken := byPosition[s.Coordinate()]; !taken {
			byPosition[s.Coordinate()] = s
		}
	}
	if own != nil {
		place(*own)
	}
	for _, s := range found {
		place(s)
	}

	seats := make([]Seat, 0, r.Rows*r.Columns)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Columns; col++ {
			if s, ok := byPosition[Coordinate{Row: row, Column: col}]; ok {
				seats = append(seats, s)
				continue
			}
			seats = append(seats, Seat{
				ID:        PlaceholderID(row, col),
				SectionID: sectionID,
				Row:       row,
				Column:    col,
			})
		}
	}
	return Snapshot{SectionID: sectionID, Rows: r.Rows, Columns: r.Columns, Seats: seats}
}
