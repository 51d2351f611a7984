package upstream

import "encoding/json"

// resultSuccess is the envelope marker for a successful call.
const resultSuccess = "SUCCESS"

// Envelope models the top-level structure of every upstream response.
type Envelope struct {
	Result  string          `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// SeatDTO is a seat as the upstream API serializes it.
type SeatDTO struct {
	ID        int64       `json:"id"`
	SectionID int64       `json:"sectionId"`
	Student   *StudentDTO `json:"student"`
	Row       int         `json:"row"`
	Column    int         `json:"column"`
}

// StudentDTO carries only what the seat plan needs.
type StudentDTO struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
