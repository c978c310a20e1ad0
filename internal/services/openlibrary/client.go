package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"oakwood/internal/services"
)

const component = "openlibrary"

// Book is the metadata record returned by the Open Library books API,
// flattened for field-by-field comparison. Nil means the service did not
// report the field; comparisons treat nil as "no opinion" rather than
// "empty".
type Book struct {
	Title       *string
	Authors     *string
	PageCount   *int
	Publisher   *string
	PublishedAt *time.Time
	Categories  *string
	Description *string
}

// Fetcher is the lookup operation consumed by verification sessions.
type Fetcher interface {
	FetchBook(ctx context.Context, isbn string) (*Book, error)
}

// Client queries the Open Library books API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each request when no custom HTTP client is supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates an Open Library client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("openlibrary base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// payload mirrors the jscmd=data response shape for one bibkey.
type payload struct {
	Title         string `json:"title"`
	NumberOfPages *int   `json:"number_of_pages"`
	PublishDate   string `json:"publish_date"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Excerpts []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
}

// FetchBook looks up a book by ISBN. A well-formed response that lacks the
// requested bibkey yields services.ErrNotFound; network and decode failures
// are tagged retryable.
func (c *Client) FetchBook(ctx context.Context, isbn string) (*Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, services.Wrap(services.ErrValidation, component, "fetch", "isbn must not be empty", nil)
	}

	bibkey := "ISBN:" + isbn
	endpoint, err := url.Parse(c.baseURL + "/api/books")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "fetch", "parse base url", err)
	}
	params := url.Values{}
	params.Set("bibkeys", bibkey)
	params.Set("format", "json")
	params.Set("jscmd", "data")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, component, "fetch", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		marker := services.ErrTransport
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, component, "fetch", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransport, component, "fetch",
			fmt.Sprintf("books api returned %d", resp.StatusCode), nil)
	}

	var body map[string]payload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, services.Wrap(services.ErrTransport, component, "fetch", "decode response", err)
	}

	record, ok := body[bibkey]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, component, "fetch",
			fmt.Sprintf("no record for isbn %s", isbn), nil)
	}
	return record.toBook(), nil
}

func (p payload) toBook() *Book {
	book := &Book{
		Title:       optionalString(p.Title),
		PublishedAt: ParsePublishDate(p.PublishDate),
	}
	if p.NumberOfPages != nil {
		pages := *p.NumberOfPages
		book.PageCount = &pages
	}
	if names := joinNames(len(p.Authors), func(i int) string { return p.Authors[i].Name }); names != "" {
		book.Authors = &names
	}
	if len(p.Publishers) > 0 {
		book.Publisher = optionalString(p.Publishers[0].Name)
	}
	if names := joinNames(len(p.Subjects), func(i int) string { return p.Subjects[i].Name }); names != "" {
		book.Categories = &names
	}
	if len(p.Excerpts) > 0 {
		book.Description = optionalString(p.Excerpts[0].Text)
	}
	return book
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func joinNames(count int, name func(int) string) string {
	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if trimmed := strings.TrimSpace(name(i)); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
