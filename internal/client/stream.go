package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opencouncil/councilsearch/internal/domain"
)

// Client talks to a CouncilSearch server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given server base URL. The HTTP client has no
// overall timeout: stream duration is bounded by the server's done frame, not
// by this layer.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// KeywordResponse is the synchronous keyword result payload.
type KeywordResponse struct {
	Results []domain.ResultItem `json:"results"`
	Query   string              `json:"query"`
	Intent  domain.Intent       `json:"intent"`
}

// Keyword runs a synchronous keyword search.
func (c *Client) Keyword(ctx context.Context, text string, types []string) (*KeywordResponse, error) {
	params := url.Values{"q": {text}, "mode": {"keyword"}}
	for _, t := range types {
		params.Add("type", t)
	}

	var out KeywordResponse
	if err := c.getJSON(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup fetches a previously cached answer by its shareable id.
func (c *Client) Lookup(ctx context.Context, id string) (*domain.CachedResult, error) {
	req, err := c.newRequest(ctx, url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup failed: %s", resp.Status)
	}

	var payload struct {
		Answer             string          `json:"answer"`
		Sources            []domain.Source `json:"sources"`
		SuggestedFollowups []string        `json:"suggested_followups"`
		Query              string          `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &domain.CachedResult{
		ID:                 id,
		Query:              payload.Query,
		Answer:             payload.Answer,
		Sources:            payload.Sources,
		SuggestedFollowups: payload.SuggestedFollowups,
	}, nil
}

// OpenStream opens the SSE channel for a question. Frames arrive in order on
// the returned channel, which closes after the done frame or on any transport
// error; a close without a preceding done frame means the stream failed.
// Cancel ctx to tear the stream down.
func (c *Client) OpenStream(ctx context.Context, question, convContext string) (<-chan domain.Frame, error) {
	params := url.Values{"q": {question}, "mode": {"ai"}}
	if convContext != "" {
		params.Set("context", convContext)
	}

	req, err := c.newRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream request failed: %s", resp.Status)
	}

	frames := make(chan domain.Frame, 32)
	go func() {
		defer close(frames)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var frame domain.Frame
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
				continue
			}

			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}

			if frame.Type == domain.EventDone {
				return
			}
		}
	}()

	return frames, nil
}

func (c *Client) newRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/search?"+params.Encode(), nil)
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, params)
	if err != nil {
		return err
	}

	// Synchronous endpoints get a bounded wait even though streams don't.
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
