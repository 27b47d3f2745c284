package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fraudlens/ringview/internal/model"
)

// Client fetches the initial case state from a feed server over HTTP. The
// live stream itself goes through the channel package; this client only
// covers the seed fetch and health probes.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client targeting the given base URL (e.g.
// "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// FetchGraph returns the server's current graph snapshot.
func (c *Client) FetchGraph(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.getJSON(ctx, "/v1/graph", &snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "/v1/health", &out)
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, errResp.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
