package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/store"
)

type checkinRequest struct {
	StudentID int64 `json:"student_id" binding:"required,gt=0"`
}

// PostCheckin records attendance when the student is enrolled and the
// current moment lies inside one of the section's windows.
func (h *Handler) PostCheckin(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	section, err := h.store.GetSection(c.Request.Context(), sectionID)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	if !h.requireEnrollment(c, sectionID, req.StudentID) {
		return
	}

	now := h.matcher.Now()
	q := schedule.Query{Now: schedule.MomentOf(now), BufferMinutes: h.matcher.BufferMinutes()}
	if !schedule.IsWithinWindow(store.ScheduleOf(section), q) {
		c.JSON(http.StatusForbidden, gin.H{"error": "outside the attendance window"})
		return
	}

	record, err := h.store.RecordAttendance(c.Request.Context(), sectionID, req.StudentID, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("Student %d checked in to section %d", req.StudentID, sectionID)

	c.JSON(http.StatusCreated, gin.H{
		"id":            record.ID,
		"section_id":    record.SectionID,
		"student_id":    record.StudentID,
		"checked_in_at": record.CheckedInAt,
	})
}

// GetWindow reports whether a check-in would be accepted right now without recording one.
func (h *Handler) GetWindow(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	section, err := h.store.GetSection(c.Request.Context(), sectionID)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}

	q := h.matcher.Query()
	c.JSON(http.StatusOK, gin.H{
		"eligible":       schedule.IsWithinWindow(store.ScheduleOf(section), q),
		"day":            q.Now.Day.String(),
		"time":           q.Now.Time.String(),
		"buffer_minutes": q.BufferMinutes,
	})
}
