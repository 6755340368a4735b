package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"planhub/internal/model"
)

// ErrNotFound maps a 404 from the installation service. Callers use it
// to distinguish "requested, found absent" from transport failure.
var ErrNotFound = errors.New("not found")

const defaultTimeout = 30 * time.Second

// Client talks to the installation-management service. One instance is
// shared across effects; it is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

type ListJobsOptions struct {
	ProductSlug string
	PlanSlug    string
	Limit       int
}

// GetVersion fetches one installable version of a product by label.
func (c *Client) GetVersion(ctx context.Context, productID int64, label string) (model.Version, error) {
	var v model.Version
	path := fmt.Sprintf("/v1/products/%d/versions/%s", productID, url.PathEscape(label))
	if err := c.getJSON(ctx, path, &v); err != nil {
		return model.Version{}, err
	}
	return v, nil
}

// GetJob fetches a single installation job by id.
func (c *Client) GetJob(ctx context.Context, jobID int64) (model.Job, error) {
	var j model.Job
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%d", jobID), &j); err != nil {
		return model.Job{}, err
	}
	return j, nil
}

// GetJobContext fetches the joined job/plan/version/product payload the
// detail view seeds its snapshot from.
func (c *Client) GetJobContext(ctx context.Context, jobID int64) (model.JobContext, error) {
	var jc model.JobContext
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%d/context", jobID), &jc); err != nil {
		return model.JobContext{}, err
	}
	return jc, nil
}

// ListJobs fetches recent jobs, optionally filtered by product and plan.
func (c *Client) ListJobs(ctx context.Context, opts ListJobsOptions) ([]model.Job, error) {
	q := url.Values{}
	if opts.ProductSlug != "" {
		q.Set("product", opts.ProductSlug)
	}
	if opts.PlanSlug != "" {
		q.Set("plan", opts.PlanSlug)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	path := "/v1/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var jobs []model.Job
	if err := c.getJSON(ctx, path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CurrentUser fetches the authenticated viewer; ErrNotFound means the
// token is missing or expired and the viewer counts as signed out.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.getJSON(ctx, "/v1/user", &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// CancelJob asks the service to cancel an in-progress job. The server
// flips the status asynchronously; a nil error only means the request
// was accepted.
func (c *Client) CancelJob(ctx context.Context, jobID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/jobs/%d/cancel", jobID), nil, nil)
}

// UpdateJob applies a partial update and returns the updated record.
func (c *Client) UpdateJob(ctx context.Context, jobID int64, patch model.JobPatch) (model.Job, error) {
	var j model.Job
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/jobs/%d", jobID), patch, &j); err != nil {
		return model.Job{}, err
	}
	return j, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request for %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "planhub")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Str("request_id", requestID).Str("method", method).Str("path", path).Err(err).Msg("api request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s: %w", path, err)
	}
	return nil
}
