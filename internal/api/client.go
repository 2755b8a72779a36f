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
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/validation"
)

const apiPrefix = "/api/v1"

// Client talks to the platform's REST backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter

	mu    sync.RWMutex
	token string
}

func NewClient(cfg *config.Config) (*Client, error) {
	validate := validation.ValidateBaseURL
	if cfg.API.RequireHTTPS {
		validate = validation.NewStrictBaseURLValidator().ValidateAndNormalize
	}
	base, err := validate(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	limit := rate.Limit(cfg.API.RateLimit)
	if cfg.API.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.API.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: cfg.API.Timeout},
		userAgent: cfg.API.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

// SetToken sets the bearer token sent with every later request.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       req.URL.Path,
			Message:    decodeMessage(resp.Body),
		}
		debuglog.WithFields(map[string]any{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Debugf("request failed: %s", apiErr.Error())
		return nil, apiErr
	}

	return resp, nil
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// getBytes fetches a binary resource such as an image.
func (c *Client) getBytes(ctx context.Context, path string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// decodeMessage extracts the backend's {"message": "..."} body, if any.
func decodeMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Title
}

// PageRequest selects one page of a list endpoint. Query carries extra
// filter or sort parameters.
type PageRequest struct {
	PageNumber int
	PageSize   int
	Seed       string
	Query      url.Values
}

func (p PageRequest) values() url.Values {
	q := url.Values{}
	for k, vs := range p.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.PageNumber > 0 {
		q.Set("pageNumber", strconv.Itoa(p.PageNumber))
	}
	if p.Seed != "" {
		q.Set("seed", p.Seed)
	}
	return q
}

func itemPath(kind Kind, id string, rest ...string) string {
	parts := append([]string{"", kind.Collection(), url.PathEscape(id)}, rest...)
	return strings.Join(parts, "/")
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) (ListResponse[T], error) {
	var out ListResponse[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return ListResponse[T]{}, err
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return out, nil
}
