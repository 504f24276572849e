package comps

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/velli/flipscout/internal/scan"
)

// Client talks to the marketplace comp-search API.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
}

type ClientOpts struct {
	BaseURL string
	APIKey  string
}

type searchResponse struct {
	Comps []Comp `json:"comps"`
}

func NewClient(opts ClientOpts) *Client {
	c := Client{baseURL: opts.BaseURL, apiKey: opts.APIKey}
	c.httpClient = resty.New().
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json")

	return &c
}

func (c *Client) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx)

	if c.apiKey != "" {
		request.SetHeader("X-API-Key", c.apiKey)
	}
	if result != nil {
		request.SetResult(result)
	}

	return request
}

// Search returns comparable sold listings for the given attributes, most
// relevant first. Size, condition and color are optional for looser matching.
func (c *Client) Search(ctx context.Context, attrs scan.Attributes) ([]Comp, error) {
	result := &searchResponse{}

	params := map[string]string{
		"brand":    attrs.Brand,
		"category": attrs.Category,
	}
	if attrs.Size != "" {
		params["size"] = attrs.Size
	}
	if attrs.Condition != "" {
		params["condition"] = attrs.Condition
	}
	if attrs.Color != "" {
		params["color"] = attrs.Color
	}

	_, err := handleError(c.req(ctx, result).
		SetQueryParams(params).
		Get("/v1/comps"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return result.Comps, nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
