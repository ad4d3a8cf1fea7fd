// Package client talks to the platform's JSON API the way the browser
// client does: cookie session, lenient response parsing, and no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haymanh/success/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// MsgAlreadySelected is the server's answer to a duplicate add.
const MsgAlreadySelected = "Opportunity already selected"

// pageLimit is the page size used when walking every page.
const pageLimit = 100

// maxPages bounds AllOpportunities against a misbehaving server.
const maxPages = 1000

// APIError is a non-2xx answer or a failure envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "api error: HTTP " + strconv.Itoa(e.Status)
	}
	return "api error: HTTP " + strconv.Itoa(e.Status) + ": " + e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar, if nil, is
// replaced with a fresh cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid API URL %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{base: u, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
		c.http.Jar = jar
	}
	return c, nil
}

// do sends a request and returns the parsed envelope. Non-2xx answers and
// {success:false} envelopes become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (gjson.Result, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, errors.Wrap(err, "failed to encode request body")
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "failed to read response body")
	}

	env := gjson.ParseBytes(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, &APIError{Status: resp.StatusCode, Message: env.Get("message").String()}
	}
	if s := env.Get("success"); s.Exists() && !s.Bool() {
		return env, &APIError{Status: resp.StatusCode, Message: env.Get("message").String()}
	}
	return env, nil
}

// Login signs in and keeps the session cookie for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	return nil
}

// Page is the pagination block of a listing.
type Page struct {
	Page  int
	Limit int
	Total int64
	Pages int
}

// ListOpportunities fetches one page. A response without
// data.opportunities yields an empty list; records that do not decode are
// skipped.
func (c *Client) ListOpportunities(ctx context.Context, query url.Values) ([]models.Opportunity, Page, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/opportunities", query, nil)
	if err != nil {
		return nil, Page{}, errors.Wrap(err, "failed to list opportunities")
	}

	out := []models.Opportunity{}
	for _, item := range env.Get("data.opportunities").Array() {
		var o models.Opportunity
		if err := json.Unmarshal([]byte(item.Raw), &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	p := env.Get("data.pagination")
	return out, Page{
		Page:  int(p.Get("page").Int()),
		Limit: int(p.Get("limit").Int()),
		Total: p.Get("total").Int(),
		Pages: int(p.Get("pages").Int()),
	}, nil
}

// AllOpportunities walks every page of the listing for query. Any page or
// limit in query is overridden.
func (c *Client) AllOpportunities(ctx context.Context, query url.Values) ([]models.Opportunity, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(pageLimit))

	var all []models.Opportunity
	for page := 1; page <= maxPages; page++ {
		q.Set("page", strconv.Itoa(page))
		rows, p, err := c.ListOpportunities(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || page >= p.Pages {
			break
		}
	}
	if all == nil {
		all = []models.Opportunity{}
	}
	return all, nil
}

// Selections fetches the signed-in user's selected opportunity references
// from the dashboard. Each reference may be a bare string or an object
// carrying _id (or id); both decode to an OpportunityRef. A response
// without userProgress yields an empty list.
func (c *Client) Selections(ctx context.Context) ([]models.OpportunityRef, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dashboard")
	}
	return ParseSelectionRefs(env.Get("data.userProgress.selectedOpportunities")), nil
}

// ParseSelectionRefs reads opportunity references out of a selections
// array. Entries with no usable reference are dropped; malformed IDs are
// kept for the caller to judge.
func ParseSelectionRefs(arr gjson.Result) []models.OpportunityRef {
	out := []models.OpportunityRef{}
	for _, item := range arr.Array() {
		ref := item.Get("opportunityId")
		switch {
		case ref.Type == gjson.String:
			out = append(out, models.IDRef(ref.String()))
		case ref.IsObject():
			id := ref.Get("_id").String()
			if id == "" {
				id = ref.Get("id").String()
			}
			if id == "" {
				continue
			}
			out = append(out, models.OpportunityRef{
				Kind:     models.RefEmbedded,
				ID:       id,
				Title:    ref.Get("title").String(),
				Category: ref.Get("category").String(),
			})
		}
	}
	return out
}

// SelectOpportunity adds id to the user's selection. already reports the
// server's duplicate answer, which is still a success.
func (c *Client) SelectOpportunity(ctx context.Context, id string) (already bool, err error) {
	env, err := c.do(ctx, http.MethodPost, "/api/dashboard/select-opportunity", nil, map[string]string{
		"opportunityId": id,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to select opportunity %s", id)
	}
	return env.Get("message").String() == MsgAlreadySelected, nil
}

// RemoveSelection removes id from the user's selection.
func (c *Client) RemoveSelection(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/dashboard/selected-opportunities/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to remove opportunity %s", id)
	}
	return nil
}
