package rbtvapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rbtv/internal/catalog"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.rocketbeans.tv/v1"

const pageSize = 50

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rbtv api: %s returned HTTP %d", e.URL, e.StatusCode)
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// Client talks to the Rocket Beans TV API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New constructs a client with defaults.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Offset int `json:"offset"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: u}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", u, err)
		}
	}
	return &env, nil
}

// paged fetches every page of a list endpoint.
func paged[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	offset := 0
	for {
		query := url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		var page []T
		env, err := c.getJSON(ctx, path, query, &page)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || env.Pagination == nil || offset+len(page) >= env.Pagination.Total {
			return out, nil
		}
		offset += len(page)
	}
}

// episodeBatch is the combined-episode wrapper the media endpoints return.
type episodeBatch struct {
	Episodes []catalog.Episode `json:"episodes"`
}

func flattenBatches(batches []episodeBatch) []catalog.Episode {
	var eps []catalog.Episode
	for _, batch := range batches {
		eps = append(eps, batch.Episodes...)
	}
	return eps
}

// Show fetches one show by id.
func (c *Client) Show(ctx context.Context, id int) (catalog.Show, error) {
	var show catalog.Show
	if _, err := c.getJSON(ctx, "/shows/"+strconv.Itoa(id), nil, &show); err != nil {
		return catalog.Show{}, err
	}
	return show, nil
}

// Shows fetches the complete show list.
func (c *Client) Shows(ctx context.Context) ([]catalog.Show, error) {
	return paged[catalog.Show](ctx, c, "/shows/all")
}

// Episode fetches one episode by id, unwrapped from its combined batch.
func (c *Client) Episode(ctx context.Context, id int) ([]catalog.Episode, error) {
	var batches []episodeBatch
	if _, err := c.getJSON(ctx, "/media/episode/"+strconv.Itoa(id), nil, &batches); err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

// EpisodesBySeason fetches every episode of a season.
func (c *Client) EpisodesBySeason(ctx context.Context, seasonID int) ([]catalog.Episode, error) {
	batches, err := paged[episodeBatch](ctx, c, "/media/episode/byseason/"+strconv.Itoa(seasonID))
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

// EpisodesByShow fetches every episode of a show.
func (c *Client) EpisodesByShow(ctx context.Context, showID int) ([]catalog.Episode, error) {
	batches, err := paged[episodeBatch](ctx, c, "/media/episode/byshow/"+strconv.Itoa(showID))
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

// UnsortedEpisodesByShow fetches the episodes of a show that are not
// assigned to any season.
func (c *Client) UnsortedEpisodesByShow(ctx context.Context, showID int) ([]catalog.Episode, error) {
	batches, err := paged[episodeBatch](ctx, c, "/media/episode/byshow/unsorted/"+strconv.Itoa(showID))
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

// EpisodesByBohne fetches every episode a Bohne appears in.
func (c *Client) EpisodesByBohne(ctx context.Context, bohneID int) ([]catalog.Episode, error) {
	batches, err := paged[episodeBatch](ctx, c, "/media/episode/bybohne/"+strconv.Itoa(bohneID))
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}

// Bohne fetches one Bohne portrait by id.
func (c *Client) Bohne(ctx context.Context, id int) (catalog.Bohne, error) {
	var bohne catalog.Bohne
	if _, err := c.getJSON(ctx, "/bohne/portrait/"+strconv.Itoa(id), nil, &bohne); err != nil {
		return catalog.Bohne{}, err
	}
	return bohne, nil
}

// Bohnen fetches all Bohne portraits.
func (c *Client) Bohnen(ctx context.Context) ([]catalog.Bohne, error) {
	return paged[catalog.Bohne](ctx, c, "/bohne/portrait/all")
}

// BlogPost fetches one blog post by id.
func (c *Client) BlogPost(ctx context.Context, id int) (catalog.BlogPost, error) {
	var post catalog.BlogPost
	if _, err := c.getJSON(ctx, "/blog/"+strconv.Itoa(id), nil, &post); err != nil {
		return catalog.BlogPost{}, err
	}
	return post, nil
}

// BlogPosts fetches the complete blog.
func (c *Client) BlogPosts(ctx context.Context) ([]catalog.BlogPost, error) {
	return paged[catalog.BlogPost](ctx, c, "/blog/all")
}

// Search runs the combined full-text search.
func (c *Client) Search(ctx context.Context, text string) (catalog.SearchResult, error) {
	var data struct {
		Shows    []catalog.Show     `json:"shows"`
		Episodes []catalog.Episode  `json:"episodes"`
		Blog     []catalog.BlogPost `json:"blog"`
	}
	if _, err := c.getJSON(ctx, "/search", url.Values{"q": {text}}, &data); err != nil {
		return catalog.SearchResult{}, err
	}
	return catalog.SearchResult{Shows: data.Shows, Episodes: data.Episodes, Posts: data.Blog}, nil
}

// ShowNameToID resolves a show title against the full show list.
func (c *Client) ShowNameToID(ctx context.Context, name string) (int, error) {
	shows, err := c.Shows(ctx)
	if err != nil {
		return 0, err
	}
	return catalog.ShowNameToID(shows, name)
}

// BohneNameToID resolves a Bohne name against the full portrait list.
func (c *Client) BohneNameToID(ctx context.Context, name string) (int, error) {
	bohnen, err := c.Bohnen(ctx)
	if err != nil {
		return 0, err
	}
	return catalog.BohneNameToID(bohnen, name)
}
