package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spot-attendance-backend/internal/model"
	"spot-attendance-backend/internal/notification"
	"spot-attendance-backend/internal/seat"
	"spot-attendance-backend/internal/store"
)

type seatResponse struct {
	ID          int64  `json:"id"`
	DisplayID   string `json:"display_id"`
	Row         int    `json:"row"`
	Column      int    `json:"column"`
	Placeholder bool   `json:"placeholder"`
	Occupied    bool   `json:"occupied"`
	Own         bool   `json:"own"`
}

type seatPlanResponse struct {
	SectionID     int64          `json:"section_id"`
	Rows          int            `json:"rows"`
	Columns       int            `json:"columns"`
	Origin        seat.Origin    `json:"origin"`
	OccupiedCount int            `json:"occupied_count"`
	OwnSeat       string         `json:"own_seat,omitempty"`
	Seats         []seatResponse `json:"seats"`
}

// GetSeatPlan handles the GET /api/sections/{section_id}/seats request.
func (h *Handler) GetSeatPlan(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}
	studentID, err := strconv.ParseInt(c.Query("student_id"), 10, 64)
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return
	}

	ctx := c.Request.Context()
	section, err := h.store.GetSection(ctx, sectionID)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	if !h.requireEnrollment(c, sectionID, studentID) {
		return
	}

	count, err := h.store.EnrollmentCount(ctx, sectionID)
	if err != nil {
		log.Printf("Warning: could not count enrollments of section %d: %v", sectionID, err)
	}

	result := h.loader.Load(ctx, seat.LoadRequest{
		SectionID:       sectionID,
		StudentID:       studentID,
		EnrollmentCount: count,
		Rows:            section.SeatRows,
		Columns:         section.SeatColumns,
	})
	if result.State != seat.StateSuccess {
		log.Printf("Error loading seat plan for section %d: %v", sectionID, result.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load seats"})
		return
	}

	snap := result.Snapshot
	resp := seatPlanResponse{
		SectionID:     sectionID,
		Rows:          snap.Rows,
		Columns:       snap.Columns,
		Origin:        result.Origin,
		OccupiedCount: snap.OccupiedCount(),
		Seats:         make([]seatResponse, 0, len(snap.Seats)),
	}
	if own, ok := snap.SeatOf(studentID); ok {
		resp.OwnSeat = own.Coordinate().DisplayID()
	}
	for _, s := range snap.Seats {
		resp.Seats = append(resp.Seats, seatResponse{
			ID:          s.ID,
			DisplayID:   s.Coordinate().DisplayID(),
			Row:         s.Row,
			Column:      s.Column,
			Placeholder: s.Placeholder(),
			Occupied:    snap.IsOccupied(s.Row, s.Column),
			Own:         snap.IsOwnSeat(s.Row, s.Column, studentID),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// positionRequest names a seat either by display id ("W3") or by row and column.
type positionRequest struct {
	SeatID string `json:"seat_id"`
	Row    *int   `json:"row"`
	Column *int   `json:"column"`
}

func (p positionRequest) coordinate() (seat.Coordinate, bool) {
	if p.SeatID != "" {
		return seat.ParseDisplayID(p.SeatID)
	}
	if p.Row == nil || p.Column == nil {
		return seat.Coordinate{}, false
	}
	return seat.Coordinate{Row: *p.Row, Column: *p.Column}, true
}

type pickSeatRequest struct {
	positionRequest
	StudentID int64 `json:"student_id" binding:"required,gt=0"`
}

// PutSeat lets a student pick a free seat.
func (h *Handler) PutSeat(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	var req pickSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pos, ok := req.coordinate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid seat_id or row and column are required"})
		return
	}

	picked, err := h.store.PickSeat(c.Request.Context(), store.SeatRequest{
		SectionID: sectionID,
		StudentID: req.StudentID,
		Position:  pos,
	})
	if err != nil {
		abortWithStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignedSeat(picked))
}

type overrideSeatRequest struct {
	positionRequest
	StudentID int64 `json:"student_id" binding:"required,gt=0"`
	TeacherID int64 `json:"teacher_id" binding:"required,gt=0"`
}

// PutSeatOverride lets the section's teacher move a student, evicting the current occupant.
func (h *Handler) PutSeatOverride(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	var req overrideSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pos, ok := req.coordinate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid seat_id or row and column are required"})
		return
	}

	change, err := h.store.OverrideSeat(c.Request.Context(), store.OverrideRequest{
		SeatRequest: store.SeatRequest{SectionID: sectionID, StudentID: req.StudentID, Position: pos},
		TeacherID:   req.TeacherID,
	})
	if err != nil {
		abortWithStoreError(c, err)
		return
	}

	displayID := pos.DisplayID()
	if h.notifier != nil {
		h.notifier.Dispatch(notification.SeatEvent{
			Kind:      notification.SeatAssigned,
			StudentID: req.StudentID,
			SectionID: sectionID,
			DisplayID: displayID,
		})
		if change.EvictedStudentID != nil {
			h.notifier.Dispatch(notification.SeatEvent{
				Kind:      notification.SeatEvicted,
				StudentID: *change.EvictedStudentID,
				SectionID: sectionID,
				DisplayID: displayID,
			})
		}
	}

	resp := assignedSeat(change.Seat)
	resp["evicted_student_id"] = change.EvictedStudentID
	c.JSON(http.StatusOK, resp)
}

func assignedSeat(s model.Seat) gin.H {
	return gin.H{
		"id":         s.ID,
		"section_id": s.SectionID,
		"student_id": s.StudentID,
		"display_id": seat.Coordinate{Row: s.Row, Column: s.Column}.DisplayID(),
		"row":        s.Row,
		"column":     s.Column,
	}
}
