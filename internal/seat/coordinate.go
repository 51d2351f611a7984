package seat

import (
	"strconv"
	"strings"
	"unicode"
)

// DisplayRows is the number of rows addressable by display identifiers (W1..W7).
const DisplayRows = 7

// Coordinate is a zero-based grid position.
type Coordinate struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// zoneCode maps a column to its zone letter: W(indow), C(enter), A(isle).
func zoneCode(column int) byte {
	switch column {
	case 0:
		return 'W'
	case 1, 2:
		return 'C'
	case 3:
		return 'A'
	default:
		return 'X'
	}
}

// DisplayID renders c as zone letter plus 1-based row, e.g. {0,0} -> "W1".
func (c Coordinate) DisplayID() string {
	return string(zoneCode(c.Column)) + strconv.Itoa(c.Row+1)
}

// ParseDisplayID is the partial inverse of DisplayID. It reports false for
// input shorter than two characters, a non-numeric row, a row outside 1..7 or
// an unknown zone letter.
//
// "C" covers two columns. The column is picked from the parity of the first
// row digit, and only when the row has more than one digit; every other "C"
// id resolves to column 2.
func ParseDisplayID(id string) (Coordinate, bool) {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return Coordinate{}, false
	}

	digits := id[1:]
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return Coordinate{}, false
		}
	}

	var column int
	switch unicode.ToUpper(rune(id[0])) {
	case 'W':
		column = 0
	case 'C':
		column = 2
		if len(id) > 2 && (id[1]-'0')%2 == 0 {
			column = 1
		}
	case 'A':
		column = 3
	default:
		return Coordinate{}, false
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return Coordinate{}, false
	}
	row := n - 1
	if row < 0 || row >= DisplayRows {
		return Coordinate{}, false
	}
	return Coordinate{Row: row, Column: column}, true
}
