package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/valyala/fasthttp"
)

// SSEFeed consumes the server's Server-Sent Events stream of bookmark
// changes for the current user.
type SSEFeed struct {
	events chan Event
	resp   *fasthttp.Response
	once   sync.Once
}

// OpenFeed connects to the feed endpoint and starts delivering events. The
// caller must Close the feed when the consumer is torn down.
func OpenFeed(baseURL, accessToken string) (*SSEFeed, error) {
	httpClient := &fasthttp.Client{StreamResponseBody: true}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(baseURL + "/api/v1/bookmarks/feed")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetCookie("access_token", accessToken)

	resp := fasthttp.AcquireResponse()
	if err := httpClient.Do(req, resp); err != nil {
		fasthttp.ReleaseResponse(resp)
		return nil, fmt.Errorf("operation failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		code := resp.StatusCode()
		fasthttp.ReleaseResponse(resp)
		if code == fasthttp.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("operation failed: feed returned %d", code)
	}

	f := &SSEFeed{
		events: make(chan Event, 32),
		resp:   resp,
	}
	go f.read()

	return f, nil
}

func (f *SSEFeed) read() {
	defer close(f.events)

	scanner := bufio.NewScanner(f.resp.BodyStream())
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		f.events <- ev
	}
}

// Events returns the delivery channel; it closes when the stream ends.
func (f *SSEFeed) Events() <-chan Event {
	return f.events
}

// Close tears down the subscription and unblocks the reader.
func (f *SSEFeed) Close() error {
	f.once.Do(func() {
		f.resp.CloseBodyStream()
	})
	return nil
}
