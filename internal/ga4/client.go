package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
)

const (
	defaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	scopeAnalyticsReadonly = "https://www.googleapis.com/auth/analytics.readonly"
)

// Report shape is fixed: one dimension, one metric, trailing 7 days.
const (
	dimensionCountry  = "country"
	metricActiveUsers = "activeUsers"
	rangeStart        = "7daysAgo"
	rangeEnd          = "today"
)

// Client fetches the active-users-by-country report from the GA4 Data API.
// It is stateless and safe for concurrent use.
type Client struct {
	propertyID string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient builds a client authenticated as the service account described
// by credentialsJSON. The oauth2 transport caches and refreshes tokens.
func NewClient(ctx context.Context, credentialsJSON []byte, propertyID string) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, scopeAnalyticsReadonly)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	return &Client{
		propertyID: propertyID,
		baseURL:    defaultBaseURL,
		httpClient: conf.Client(ctx),
		timeout:    30 * time.Second,
	}, nil
}

// WithTimeout sets the per-fetch timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// WithHTTPClient replaces the authenticated HTTP client. Used by tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

type runReportRequest struct {
	Dimensions []name      `json:"dimensions"`
	Metrics    []name      `json:"metrics"`
	DateRanges []dateRange `json:"dateRanges"`
}

type name struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type runReportResponse struct {
	Rows []responseRow `json:"rows"`
}

type responseRow struct {
	DimensionValues []responseValue `json:"dimensionValues"`
	MetricValues    []responseValue `json:"metricValues"`
}

type responseValue struct {
	Value string `json:"value"`
}

// maxErrorBodySize bounds how much of an API error body is kept for logging.
const maxErrorBodySize = 4 << 10

// Fetch runs one report request and returns the rows in response order.
// No retry; a single failed call is a failed fetch.
func (c *Client) Fetch(ctx context.Context) (domain.Report, error) {
	reqBody := runReportRequest{
		Dimensions: []name{{Name: dimensionCountry}},
		Metrics:    []name{{Name: metricActiveUsers}},
		DateRanges: []dateRange{{StartDate: rangeStart, EndDate: rangeEnd}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Report{}, fmt.Errorf("marshal report request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.propertyID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Report{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Report{}, fmt.Errorf("run report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return domain.Report{}, fmt.Errorf("run report: status %d: %s", resp.StatusCode, msg)
	}

	var report runReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return domain.Report{}, fmt.Errorf("decode report: %w", err)
	}

	rows := make([]domain.ReportRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		rows = append(rows, domain.ReportRow{
			Country:     row.DimensionValues[0].Value,
			ActiveUsers: row.MetricValues[0].Value,
		})
	}

	return domain.Report{Rows: rows, FetchedAt: time.Now().UTC()}, nil
}
