package seat

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureKind classifies the outcome of a seat lookup.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailurePermission
	FailureOther
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailurePermission:
		return "permission"
	default:
		return "other"
	}
}

// ErrNoSeat is returned by a Source when the student holds no seat in the section.
var ErrNoSeat = errors.New("no seat assigned")

// LookupError is a failed seat lookup as reported by a Source.
type LookupError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Classify decides whether err is a permission-class failure. Status 400,
// 401 and 403, or any message mentioning "permission", count as permission.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var le *LookupError
	if errors.As(err, &le) {
		switch le.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return FailurePermission
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "permission") {
		return FailurePermission
	}
	return FailureOther
}
