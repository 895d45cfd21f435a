package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/me/cinedex/pkg/model"
)

// Client is an HTTP client for the cinedex API.
type Client struct {
	BaseURL    string
	Token      string // session ID sent as a bearer token; empty for anonymous calls
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a cinedex API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// apiResponse is the parsed envelope.
type apiResponse struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

// do performs an HTTP request and returns the parsed envelope.
func (c *Client) do(method, path string, body any) (*apiResponse, error) {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	c.Logger.Debug("HTTP request", "method", method, "url", url)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "request_id", resp.Header.Get("X-Request-ID"))

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w\nbody: %s", resp.StatusCode, err, string(respBody))
	}

	if apiResp.Status == "error" && apiResp.Error != nil {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) (*apiResponse, error) {
	return c.do(http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(path string, body any) (*apiResponse, error) {
	return c.do(http.MethodPost, path, body)
}

// ListOptions are the list query parameters understood by the API.
type ListOptions struct {
	Page     int
	PageSize int
	Sort     string
	Desc     bool
	Search   string
}

// Values encodes o for kind. Sort parameters are prefixed with the kind
// name, as the API expects.
func (o ListOptions) Values(kind string) url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", fmt.Sprint(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("pageSize", fmt.Sprint(o.PageSize))
	}
	if o.Sort != "" {
		v.Set(kind+"SortBy", o.Sort)
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		v.Set(kind+"AscOrDesc", dir)
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	return v
}

// List fetches one page of kind.
func (c *Client) List(kind string, opts ListOptions) (*apiResponse, error) {
	path := "/api/v1/" + url.PathEscape(kind)
	if q := opts.Values(kind).Encode(); q != "" {
		path += "?" + q
	}
	return c.Get(path)
}
