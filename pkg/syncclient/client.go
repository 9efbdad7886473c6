package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/types"
)

const DefaultTimeout = 10 * time.Second

// Fetcher returns the remote records with id greater than since.
type Fetcher interface {
	FetchSince(ctx context.Context, since int64) ([]models.Update, error)
}

// Forwarder delivers a locally created update to the ingestion endpoint.
type Forwarder interface {
	Ingest(ctx context.Context, req types.IngestRequest) (types.IngestResponse, error)
}

// Client talks to the update endpoints over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient gets DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) FetchSince(ctx context.Context, since int64) ([]models.Update, error) {
	const op = "fetch updates"
	u := c.baseURL + "/updates"
	if since > 0 {
		u += "?" + url.Values{"since": {strconv.FormatInt(since, 10)}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errorFromBody(resp.Body)}
	}
	var items []types.UpdateItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	out := make([]models.Update, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToModel())
	}
	return out, nil
}

func (c *Client) Ingest(ctx context.Context, in types.IngestRequest) (types.IngestResponse, error) {
	const op = "ingest update"
	body, err := json.Marshal(in)
	if err != nil {
		return types.IngestResponse{}, fmt.Errorf("%s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/updates", bytes.NewReader(body))
	if err != nil {
		return types.IngestResponse{}, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return types.IngestResponse{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		var env types.APIResponse
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == nil {
			return types.IngestResponse{}, &ValidationError{Message: "rejected by server"}
		}
		field, _ := env.Error.Details["field"].(string)
		return types.IngestResponse{}, &ValidationError{Field: field, Message: env.Error.Message}
	default:
		return types.IngestResponse{}, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errorFromBody(resp.Body)}
	}

	var out types.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.IngestResponse{}, &TransportError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return out, nil
}

// errorFromBody extracts the envelope message of an error response, falling back to the raw text.
func errorFromBody(r io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var env types.APIResponse
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return errors.New(env.Error.Message)
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return errors.New(s)
	}
	return errors.New("empty response body")
}
