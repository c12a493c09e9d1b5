// Package api is a client for the tracking service's REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
)

const (
	defaultPageSize = 100
	defaultTimeout  = 15 * time.Second

	// maxPages bounds pagination against a server that never reports the
	// last page.
	maxPages = 1000
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// Client talks to the tracking service on behalf of one user.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	PageSize   int
	Logger     *slog.Logger

	// now is overridden in tests.
	now func() time.Time
}

// page is the envelope of every paginated list response.
type page struct {
	Results    []wireRecord `json:"results"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// wireRecord is a log record as serialized by the service.
type wireRecord struct {
	ID           flexID  `json:"id"`
	FoodID       flexID  `json:"food_id"`
	FoodName     string  `json:"food_name"`
	MealType     string  `json:"meal_type"`
	ConsumedDate string  `json:"consumed_date"`
	RecordedAt   string  `json:"recorded_at"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fats         float64 `json:"fats"`
	VolumeML     float64 `json:"volume_ml"`
	Note         string  `json:"note"`
	Rating       int     `json:"rating"`
}

// flexID accepts identifiers serialized as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode identifier %s: %w", b, err)
	}
	*f = flexID(n.String())
	return nil
}

func (w wireRecord) toRecord(kind intake.Kind) intake.Record {
	r := intake.Record{
		ID:       string(w.ID),
		EntityID: string(w.FoodID),
		Name:     strings.TrimSpace(w.FoodName),
		Category: strings.TrimSpace(w.MealType),
		Date:     strings.TrimSpace(w.ConsumedDate),
		Measures: intake.Measures{
			Calories: w.Calories,
			Protein:  w.Protein,
			Carbs:    w.Carbs,
			Fats:     w.Fats,
			VolumeML: w.VolumeML,
		},
		Note: w.Note,
		Kind: kind,
	}
	if w.Rating >= 1 && w.Rating <= 5 {
		r.Rating = w.Rating
	}
	if t, err := time.Parse(time.RFC3339, w.RecordedAt); err == nil {
		r.RecordedAt = t
	}
	return r
}

// ListFoodLogs returns every food log of the authenticated user.
func (c *Client) ListFoodLogs(ctx context.Context) ([]intake.Record, error) {
	return c.listLogs(ctx, logsPath(intake.KindFood), intake.KindFood)
}

// ListWaterLogs returns every water log of the authenticated user.
func (c *Client) ListWaterLogs(ctx context.Context) ([]intake.Record, error) {
	return c.listLogs(ctx, logsPath(intake.KindWater), intake.KindWater)
}

// ListLogs dispatches on kind.
func (c *Client) ListLogs(ctx context.Context, kind intake.Kind) ([]intake.Record, error) {
	if kind == intake.KindWater {
		return c.ListWaterLogs(ctx)
	}
	return c.ListFoodLogs(ctx)
}

// DeleteFoodLog deletes one food log record.
func (c *Client) DeleteFoodLog(ctx context.Context, id string) error {
	return c.deleteLog(ctx, "/api/v1/food-logs/", id)
}

// DeleteWaterLog deletes one water log record.
func (c *Client) DeleteWaterLog(ctx context.Context, id string) error {
	return c.deleteLog(ctx, "/api/v1/water-logs/", id)
}

// DeleteLog dispatches on kind.
func (c *Client) DeleteLog(ctx context.Context, kind intake.Kind, id string) error {
	if kind == intake.KindWater {
		return c.DeleteWaterLog(ctx, id)
	}
	return c.DeleteFoodLog(ctx, id)
}

func logsPath(kind intake.Kind) string {
	if kind == intake.KindWater {
		return "/api/v1/water-logs/mine"
	}
	return "/api/v1/food-logs/mine"
}

func (c *Client) listLogs(ctx context.Context, path string, kind intake.Kind) ([]intake.Record, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	records := make([]intake.Record, 0)
	for n := 1; n <= maxPages; n++ {
		p, err := c.fetchPage(ctx, path, kind, n, pageSize)
		if err != nil {
			return nil, err
		}
		for _, w := range p.Results {
			records = append(records, w.toRecord(kind))
		}
		c.logger().Debug("fetched page", "kind", kind, "page", n, "total_pages", p.TotalPages, "records", len(p.Results))

		if len(p.Results) == 0 || p.TotalPages <= n {
			return records, nil
		}
	}
	return records, nil
}

// Probe requests a single one-record page of kind and returns the number
// of logs the service reports, without downloading them.
func (c *Client) Probe(ctx context.Context, kind intake.Kind) (int, error) {
	p, err := c.fetchPage(ctx, logsPath(kind), kind, 1, 1)
	if err != nil {
		return 0, err
	}
	if len(p.Results) == 0 {
		return 0, nil
	}
	return p.TotalPages, nil
}

func (c *Client) fetchPage(ctx context.Context, path string, kind intake.Kind, n, size int) (page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	q.Set("page_size", strconv.Itoa(size))

	body, err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), "list "+string(kind)+" logs")
	if err != nil {
		return page{}, err
	}
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return page{}, fmt.Errorf("decode %s logs page %d: %w", kind, n, err)
	}
	return p, nil
}

func (c *Client) deleteLog(ctx context.Context, prefix, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete log: empty record id")
	}
	_, err := c.do(ctx, http.MethodDelete, prefix+url.PathEscape(id), "delete log "+id)
	if err != nil {
		return err
	}
	c.logger().Debug("deleted log", "path", prefix, "id", id)
	return nil
}

// do issues an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path, op string) ([]byte, error) {
	if err := c.checkToken(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%s: missing API base URL", op)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
