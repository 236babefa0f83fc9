package omdb

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

	"moviebase/internal"
	"moviebase/internal/config"
	"moviebase/internal/util"
)

// ErrAuthRejected marks a rejected credential or an exhausted request
// quota. Every later call would fail the same way, so callers must stop
// the run.
var ErrAuthRejected = errors.New("omdb credential rejected or request limit reached")

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	pacer      *Pacer
}

type searchResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	ImdbID     string `json:"imdbID"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	BoxOffice  string `json:"BoxOffice"`
	ImdbRating string `json:"imdbRating"`
	Runtime    string `json:"Runtime"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.OMDBTimeoutMs) * time.Millisecond},
		pacer:      NewPacer(time.Duration(cfg.APICallDelayMs) * time.Millisecond),
	}
}

// SearchByTitle queries by exact title, optionally constrained to a
// release year. A nil payload with a nil error means the service found
// no match.
func (c *Client) SearchByTitle(ctx context.Context, title string, year *int) (*internal.MoviePayload, error) {
	params := map[string]string{"t": title}
	if year != nil {
		params["y"] = strconv.Itoa(*year)
	}
	return c.lookup(ctx, params)
}

// SearchByIMDBID queries by the exact external identifier, e.g. "tt0114709".
func (c *Client) SearchByIMDBID(ctx context.Context, imdbID string) (*internal.MoviePayload, error) {
	return c.lookup(ctx, map[string]string{"i": imdbID})
}

func (c *Client) lookup(ctx context.Context, params map[string]string) (*internal.MoviePayload, error) {
	if strings.TrimSpace(c.cfg.OMDBAPIKey) == "" {
		return nil, fmt.Errorf("missing OMDB_API_KEY: %w", ErrAuthRejected)
	}

	u, err := url.Parse(c.cfg.OMDBBaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("apikey", c.cfg.OMDBAPIKey)
	q.Set("type", "movie")
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	c.pacer.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("omdb status 401: %w", ErrAuthRejected)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("omdb api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("omdb response decode: %w", err)
	}

	if !strings.EqualFold(decoded.Response, "True") {
		if isAuthError(decoded.Error) {
			return nil, fmt.Errorf("omdb rejected request: %s: %w", decoded.Error, ErrAuthRejected)
		}
		return nil, nil
	}

	return &internal.MoviePayload{
		IMDBID:     decoded.ImdbID,
		Director:   util.CleanField(decoded.Director),
		Plot:       util.CleanField(decoded.Plot),
		BoxOffice:  util.CleanField(decoded.BoxOffice),
		IMDBRating: util.ParseRating(decoded.ImdbRating),
		Runtime:    util.CleanField(decoded.Runtime),
	}, nil
}

func isAuthError(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "api key") || strings.Contains(m, "limit reached")
}

// FormatIMDBID converts a raw cross-reference identifier such as "114709"
// into the service's expected shape, "tt0114709". Identifiers already
// carrying the prefix pass through; anything non-numeric yields "".
func FormatIMDBID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "tt") {
		return raw
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("tt%07d", n)
}
