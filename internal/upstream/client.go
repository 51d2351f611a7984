package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spot-attendance-backend/config"
	"spot-attendance-backend/internal/seat"
)

// Client reads seat plans from the upstream SPOT API. It implements seat.Source.
type Client struct {
	baseURL *url.URL
	headers map[string]string
	client  *http.Client
}

// NewClient creates an upstream client from configuration.
func NewClient(cfg config.UpstreamConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base url %q: %w", cfg.BaseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Upstream client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: base,
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// ListAll calls the section seat listing, GET api/seats/section/{id}.
func (c *Client) ListAll(ctx context.Context, sectionID int64) ([]seat.Seat, error) {
	var dtos []SeatDTO
	path := "api/seats/section/" + strconv.FormatInt(sectionID, 10)
	if err := c.get(ctx, "list section seats", path, nil, &dtos); err != nil {
		return nil, err
	}
	return toSeats(sectionID, dtos), nil
}

// ListSection calls the older query-parameter listing, GET api/seats?sectionId=.
func (c *Client) ListSection(ctx context.Context, sectionID int64) ([]seat.Seat, error) {
	var dtos []SeatDTO
	q := url.Values{"sectionId": {strconv.FormatInt(sectionID, 10)}}
	if err := c.get(ctx, "list seats", "api/seats", q, &dtos); err != nil {
		return nil, err
	}
	return toSeats(sectionID, dtos), nil
}

// StudentSeat calls GET api/seats/student. A null payload means no seat.
func (c *Client) StudentSeat(ctx context.Context, sectionID, studentID int64) (seat.Seat, error) {
	var dto *SeatDTO
	q := url.Values{
		"studentId": {strconv.FormatInt(studentID, 10)},
		"sectionId": {strconv.FormatInt(sectionID, 10)},
	}
	if err := c.get(ctx, "student seat", "api/seats/student", q, &dto); err != nil {
		return seat.Seat{}, err
	}
	if dto == nil {
		return seat.Seat{}, fmt.Errorf("student %d in section %d: %w", studentID, sectionID, seat.ErrNoSeat)
	}
	return toSeat(sectionID, *dto), nil
}

// get performs the request and unwraps the envelope into out. Failures are
// reported as *seat.LookupError so the loader can classify them.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &seat.LookupError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &seat.LookupError{Op: op, Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &seat.LookupError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode != http.StatusOK {
		le := &seat.LookupError{Op: op, Status: resp.StatusCode}
		if decodeErr == nil {
			le.Message = env.Message
		}
		return le
	}
	if decodeErr != nil {
		return &seat.LookupError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal api response: %w", decodeErr)}
	}
	if env.Result != resultSuccess {
		return &seat.LookupError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}

	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &seat.LookupError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal data: %w", err)}
	}
	return nil
}

func toSeat(sectionID int64, d SeatDTO) seat.Seat {
	s := seat.Seat{ID: d.ID, SectionID: d.SectionID, Row: d.Row, Column: d.Column}
	if s.SectionID == 0 {
		s.SectionID = sectionID
	}
	if d.Student != nil {
		id := d.Student.ID
		s.OccupantID = &id
	}
	return s
}

func toSeats(sectionID int64, dtos []SeatDTO) []seat.Seat {
	out := make([]seat.Seat, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, toSeat(sectionID, d))
	}
	return out
}
