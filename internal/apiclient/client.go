// Package apiclient is a thin typed client for the CRM HTTP API. The
// scheduled jobs and crmctl talk to the service through it instead of
// reaching into the database.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/osagie/go-crm-backend.git/internal/crm"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type RestockResult struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	UpdatedProducts []crm.Product `json:"updated_products"`
}

// Health hits /healthz and returns the body ("ok" when alive).
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("healthz: status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (c *Client) RestockLow(ctx context.Context) (RestockResult, error) {
	var out RestockResult
	err := c.do(ctx, http.MethodPost, "/products/restock-low", &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context) (crm.Summary, error) {
	var out crm.Summary
	err := c.do(ctx, http.MethodGet, "/reports/summary", &out)
	return out, err
}

// PendingOrdersSince lists PENDING orders with order_date >= since.
func (c *Client) PendingOrdersSince(ctx context.Context, since time.Time) ([]crm.OrderWithCustomer, error) {
	q := url.Values{}
	q.Set("status", string(crm.StatusPending))
	q.Set("since", since.UTC().Format(time.RFC3339))
	var out []crm.OrderWithCustomer
	err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, e.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
