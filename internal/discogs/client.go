package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mmcdole/crate/internal/domain"
)

const (
	DefaultBaseURL = "https://api.discogs.com"
	WebBaseURL     = "https://www.discogs.com"
)

// Client implements domain.CollectionClient for the Discogs API.
type Client struct {
	baseURL   string
	transport Getter
	logger    *slog.Logger
}

// NewClient creates a new Discogs API client
func NewClient(baseURL string, transport Getter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		logger:    logger,
	}
}

// ReleasePageURL is the public web page of a release.
func ReleasePageURL(releaseID int64) string {
	return fmt.Sprintf("%s/release/%d", WebBaseURL, releaseID)
}

// CollectionURL builds the URL of one page of a user's collection, newest first.
func (c *Client) CollectionURL(username string, page, perPage int) string {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("sort", "added")
	query.Set("sort_order", "desc")
	return fmt.Sprintf("%s/users/%s/collection/folders/0/releases?%s",
		c.baseURL, url.PathEscape(username), query.Encode())
}

// FetchCollectionPage returns one page of the user's collection
func (c *Client) FetchCollectionPage(ctx context.Context, username string, page, perPage int) (*domain.CollectionPage, error) {
	body, err := c.transport.Get(ctx, c.CollectionURL(username, page, perPage))
	if err != nil {
		return nil, err
	}

	var resp domain.CollectionPage
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse collection page %d: %w", page, err)
	}
	if resp.Releases == nil {
		resp.Releases = []domain.RemoteRecord{}
	}
	return &resp, nil
}

// ValidateUser reports whether the username exists. A 404 is a valid
// "no" answer; any other failure is returned as an error.
func (c *Client) ValidateUser(ctx context.Context, username string) (bool, error) {
	reqURL := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))
	if _, err := c.transport.Get(ctx, reqURL); err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CollectionSize returns the number of items in the user's collection
// using a single one-item page.
func (c *Client) CollectionSize(ctx context.Context, username string) (int, error) {
	body, err := c.transport.Get(ctx, c.CollectionURL(username, 1, 1))
	if err != nil {
		return 0, err
	}
	items := gjson.GetBytes(body, "pagination.items")
	if !items.Exists() {
		return 0, fmt.Errorf("collection response has no pagination.items")
	}
	return int(items.Int()), nil
}
