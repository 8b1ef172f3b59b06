// Package client talks to the capture-logs search API.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/view"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search API returned %d", e.Status)
	}
	return fmt.Sprintf("search API returned %d: %s", e.Status, e.Message)
}

// Client is a resty-backed API client.
type Client struct {
	rc *resty.Client
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// Search posts req to /logs/search.
func (c *Client) Search(ctx context.Context, req view.Request) (model.SearchPage, error) {
	var page model.SearchPage
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&page).
		SetError(&model.ErrorResponse{}).
		Post("/logs/search")
	if err != nil {
		return model.SearchPage{}, fmt.Errorf("search request: %w", err)
	}
	if !resp.IsSuccess() {
		return model.SearchPage{}, apiError(resp)
	}
	if page.Data == nil {
		page.Data = []model.LogEntry{}
	}
	return page, nil
}

// Health reports the server's stored log count.
func (c *Client) Health(ctx context.Context) (int64, error) {
	var body struct {
		Status   string `json:"status"`
		LogCount int64  `json:"log_count"`
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&model.ErrorResponse{}).
		Get("/api/health")
	if err != nil {
		return 0, fmt.Errorf("health request: %w", err)
	}
	if !resp.IsSuccess() {
		return 0, apiError(resp)
	}
	if body.Status != "ok" {
		return 0, errors.New("server reported unhealthy")
	}
	return body.LogCount, nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	if er, ok := resp.Error().(*model.ErrorResponse); ok && er.Error != "" {
		e.Message = er.Error
	} else {
		e.Message = strings.TrimSpace(string(resp.Body()))
	}
	return e
}
