package visits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// DefaultBadgeURL is the public visitor-badge endpoint.
const DefaultBadgeURL = "https://visitor-badge.laobi.icu/badge"

// ErrNoCount is returned when the badge response carries no number.
var ErrNoCount = errors.New("badge response has no visit count")

var firstNumber = regexp.MustCompile(`\d+`)

// BadgeClient reads the site-wide visit count from a visitor-badge service.
// Each fetch also counts as a visit on the service side.
type BadgeClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewBadgeClient creates a client for baseURL with the given request timeout.
func NewBadgeClient(baseURL string, timeout time.Duration) *BadgeClient {
	if baseURL == "" {
		baseURL = DefaultBadgeURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BadgeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Fetch requests the badge for pageID and returns the first number in it.
func (c *BadgeClient) Fetch(ctx context.Context, pageID string) (int64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("badge url: %w", err)
	}
	q := u.Query()
	q.Set("page_id", pageID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("badge request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connect to badge service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("badge service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return 0, fmt.Errorf("read badge: %w", err)
	}
	m := firstNumber.Find(body)
	if m == nil {
		return 0, ErrNoCount
	}
	n, err := strconv.ParseInt(string(m), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse badge count: %w", err)
	}
	return n, nil
}
