// Package endpoint discovers the gateway URL and builds the versioned
// transport URL from it.
package endpoint

import (
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
)

const (
	DefaultAPIBase  = "https://discord.com/api/v10"
	DefaultVersion  = 10
	DefaultEncoding = "json"
)

var (
	ErrEmptyGatewayURL = errors.New("endpoint: lookup returned empty url")
	ErrInvalidURL      = errors.New("endpoint: invalid url")
)

type gatewayResponse struct {
	URL string `json:"url"`
}

// Resolver performs the well-known gateway lookup over HTTP.
type Resolver struct {
	APIBase   string
	Client    *http.Client
	UserAgent string
}

// NewResolver builds a resolver. A nil client gets a 10-second timeout.
func NewResolver(apiBase string, client *http.Client) *Resolver {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = DefaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{
		APIBase: strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		Client:  client,
	}
}

// Resolve issues GET {APIBase}/gateway and returns the url field.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.APIBase+"/gateway", nil)
	if err != nil {
		return "", fmt.Errorf("endpoint: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("endpoint: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("endpoint: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("endpoint: decode response: %w", err)
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", ErrEmptyGatewayURL
	}
	return strings.TrimSpace(out.URL), nil
}

// Static resolves to a fixed gateway URL without a lookup.
type Static string

func (s Static) Resolve(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrEmptyGatewayURL
	}
	return strings.TrimSpace(string(s)), nil
}

// TransportURL appends the protocol version and encoding query parameters
// to a gateway URL. Existing query parameters are preserved.
func TransportURL(base string, version int, encoding string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if version <= 0 {
		version = DefaultVersion
	}
	if strings.TrimSpace(encoding) == "" {
		encoding = DefaultEncoding
	}
	q := u.Query()
	q.Set("v", strconv.Itoa(version))
	q.Set("encoding", encoding)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
