package shiftsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client reads shifts from the external time-clock API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type shiftPayload struct {
	UserID       string     `json:"user_id"`
	ClockIn      time.Time  `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out"`
	TotalMinutes float64    `json:"total_minutes"`
	IsActive     bool       `json:"is_active"`
}

type shiftsResponse struct {
	Shifts []shiftPayload `json:"shifts"`
}

// GetShiftsForDate returns every shift the time clock reports for the local
// date. Network failures, 429 and 5xx responses wrap ledger.ErrTransientFetch.
func (c *Client) GetShiftsForDate(ctx context.Context, date time.Time) ([]ledger.Shift, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	endpoint := c.baseURL + "/shifts?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build shifts request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: shift source returned %d", ledger.ErrTransientFetch, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("shift source returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload shiftsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode shifts response: %w", err)
	}

	shifts := make([]ledger.Shift, 0, len(payload.Shifts))
	for _, s := range payload.Shifts {
		shift := ledger.Shift{
			ExternalUserID: s.UserID,
			ClockIn:        s.ClockIn.UTC(),
			TotalMinutes:   s.TotalMinutes,
			IsActive:       s.IsActive,
		}
		if s.ClockOut != nil {
			out := s.ClockOut.UTC()
			shift.ClockOut = &out
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}
