package external

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	extErrors "github.com/pkg/errors"
)

const apiKeyHeader = "x-api-key"

// Client is a thin JSON-over-HTTPS client for the external services
// (License Service, Customer Directory, Payment Gateway Order API).
// Every request carries the static API key in the x-api-key header.
type Client struct {
	BaseURI    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a Client against the given base URI
func NewClient(baseURI, apiKey string) *Client {
	return &Client{
		BaseURI: strings.TrimSuffix(baseURI, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

// Do will issue a single request and decode the JSON response body into out
// when out is non-nil and the response carries a body. The HTTP status code is
// returned alongside so callers can branch on non-2xx without losing the body.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return 0, extErrors.Wrap(err, "Cannot encode request body")
		}
		reader = bytes.NewReader(jsonBytes)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURI+path, reader)
	if err != nil {
		return 0, extErrors.Wrap(err, "Cannot construct request")
	}
	req.Header.Set(apiKeyHeader, c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, extErrors.Wrap(err, "Cannot reach external service")
	}
	defer res.Body.Close()

	if out != nil && res.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, extErrors.Wrap(err, "Cannot decode response body")
		}
	}

	return res.StatusCode, nil
}
