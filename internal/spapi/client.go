package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultUserAgent = "sharepoint-go/0.1"

// digestSlack is subtracted from the form digest lifetime so a digest is
// never used right at its expiry boundary.
const digestSlack = 30 * time.Second

// Authorizer attaches authentication state to outgoing requests. Defined at
// the consumer (spapi package) per Go convention "accept interfaces, return
// structs". The auth flows in auth.go provide the real implementations.
type Authorizer interface {
	Authorize(req *http.Request) error
}

// Client is an HTTP client for the SharePoint REST API of a single site.
// It handles request construction, authentication, form-digest acquisition
// for write operations, and error classification. It performs no retries:
// transport failures propagate directly to the caller.
type Client struct {
	siteURL    string // e.g. "https://tenant.sharepoint.com/sites/ps.all", no trailing slash
	httpClient *http.Client
	auth       Authorizer
	logger     *slog.Logger
	userAgent  string

	// Form digest cache for unsafe methods. Guarded by mu so accidental
	// concurrent use does not corrupt the cache, though the client makes
	// no thread-safety guarantee overall.
	mu           sync.Mutex
	digest       string
	digestExpiry time.Time
}

// NewClient creates a SharePoint REST client for the given site URL
// (e.g. "https://tenant.sharepoint.com/sites/ps.all").
func NewClient(siteURL string, httpClient *http.Client, auth Authorizer, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		siteURL:    strings.TrimRight(siteURL, "/"),
		httpClient: httpClient,
		auth:       auth,
		logger:     logger,
		userAgent:  userAgent,
	}
}

// SiteURL returns the site URL the client was constructed with.
func (c *Client) SiteURL() string {
	return c.siteURL
}

// Do executes an HTTP request against the site's REST API.
// The path is appended to the site URL. Unsafe methods automatically carry
// an X-RequestDigest header. The caller is responsible for closing the
// response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	if method != http.MethodGet && method != http.MethodHead {
		digest, digestErr := c.requestDigest(ctx)
		if digestErr != nil {
			return nil, digestErr
		}

		req.Header.Set("X-RequestDigest", digest)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spapi: %s %s: %w", method, path, err)
	}

	// 2xx is success.
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// newRequest builds an authorized request with the standard headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.siteURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("spapi: creating request: %w", err)
	}

	if authErr := c.auth.Authorize(req); authErr != nil {
		return nil, fmt.Errorf("spapi: authorizing request: %w", authErr)
	}

	req.Header.Set("Accept", "application/json;odata=nometadata")
	req.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// requestDigest returns a valid form digest, fetching a fresh one from
// /_api/contextinfo when the cached digest is missing or expired.
func (c *Client) requestDigest(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.digest != "" && time.Now().Before(c.digestExpiry) {
		return c.digest, nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/_api/contextinfo", nil, "")
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spapi: fetching form digest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var ci contextInfoResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&ci); decErr != nil {
		return "", fmt.Errorf("spapi: decoding contextinfo response: %w", decErr)
	}

	if ci.FormDigestValue == "" {
		return "", fmt.Errorf("spapi: contextinfo returned empty form digest")
	}

	lifetime := time.Duration(ci.FormDigestTimeoutSeconds) * time.Second
	if lifetime > digestSlack {
		lifetime -= digestSlack
	}

	c.digest = ci.FormDigestValue
	c.digestExpiry = time.Now().Add(lifetime)

	c.logger.Debug("form digest refreshed",
		slog.Time("expiry", c.digestExpiry),
	)

	return c.digest, nil
}

// getJSON executes a GET request and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, v)
}

// decodeJSON decodes a JSON response body into v with a consistent error wrap.
func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("spapi: decoding response: %w", err)
	}

	return nil
}

// quoteServerRelativeURL prepares a server-relative path for interpolation
// into a quoted REST method argument: single quotes are doubled per the
// OData literal rules, then each segment is percent-encoded so characters
// like spaces and # are safe in the request URL.
func quoteServerRelativeURL(p string) string {
	p = strings.ReplaceAll(p, "'", "''")

	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}
