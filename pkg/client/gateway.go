package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrUnauthorized = errors.New("unauthorized")

// HTTPGateway talks to the Smartmark service over its JSON API, presenting
// the session cookies with every request.
type HTTPGateway struct {
	BaseURL      string
	AccessToken  string
	RefreshToken string
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{BaseURL: baseURL}
}

// envelope mirrors the server's standardized response shape.
type envelope struct {
	Success bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one request. The context is checked before dispatch and a
// context deadline bounds the whole round trip; cancellation alone does not
// interrupt a request already in flight.
func (g *HTTPGateway) do(ctx context.Context, method, path string, body interface{}) (int, *envelope, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, fmt.Errorf("operation failed: %w", err)
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(g.BaseURL + path)

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	}

	if g.AccessToken != "" {
		agent.Cookie("access_token", g.AccessToken)
	}
	if g.RefreshToken != "" {
		agent.Cookie("refresh_token", g.RefreshToken)
	}
	if body != nil {
		agent.JSON(body)
	}

	if err := agent.Parse(); err != nil {
		return 0, nil, fmt.Errorf("operation failed: %w", err)
	}

	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("operation failed: %w", errs[0])
	}

	var env envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return status, nil, fmt.Errorf("operation failed: malformed response")
		}
	}
	return status, &env, nil
}

func (g *HTTPGateway) opError(status int, env *envelope) error {
	if status == fiber.StatusUnauthorized {
		return ErrUnauthorized
	}
	if env != nil && env.Error != nil && env.Error.Message != "" {
		return fmt.Errorf("operation failed: %s", env.Error.Message)
	}
	return fmt.Errorf("operation failed: status %d", status)
}

// List fetches the caller's bookmarks for a filter pair. An unresolved
// identity degrades to an empty result rather than an error.
func (g *HTTPGateway) List(ctx context.Context, query, tag string) ([]Bookmark, error) {
	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	path := "/api/v1/bookmarks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	status, env, err := g.do(ctx, fiber.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == fiber.StatusUnauthorized {
		return []Bookmark{}, nil
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var bookmarks []Bookmark
	if err := json.Unmarshal(env.Data, &bookmarks); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return bookmarks, nil
}

func (g *HTTPGateway) Get(ctx context.Context, id string) (*Bookmark, error) {
	status, env, err := g.do(ctx, fiber.MethodGet, "/api/v1/bookmarks/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var b Bookmark
	if err := json.Unmarshal(env.Data, &b); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return &b, nil
}

func (g *HTTPGateway) Create(ctx context.Context, input BookmarkInput) (*Bookmark, error) {
	status, env, err := g.do(ctx, fiber.MethodPost, "/api/v1/bookmarks", input)
	if err != nil {
		return nil, err
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var b Bookmark
	if err := json.Unmarshal(env.Data, &b); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return &b, nil
}

func (g *HTTPGateway) Update(ctx context.Context, id string, upd BookmarkUpdate) (*Bookmark, error) {
	status, env, err := g.do(ctx, fiber.MethodPatch, "/api/v1/bookmarks/"+id, upd)
	if err != nil {
		return nil, err
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var b Bookmark
	if err := json.Unmarshal(env.Data, &b); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return &b, nil
}

func (g *HTTPGateway) Delete(ctx context.Context, id string) (bool, error) {
	status, env, err := g.do(ctx, fiber.MethodDelete, "/api/v1/bookmarks/"+id, nil)
	if err != nil {
		return false, err
	}
	if status != fiber.StatusOK {
		return false, g.opError(status, env)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return false, fmt.Errorf("operation failed: malformed response")
	}
	return result.Success, nil
}

// Tags fetches the caller's distinct tags; unauthorized degrades to empty.
func (g *HTTPGateway) Tags(ctx context.Context) ([]string, error) {
	status, env, err := g.do(ctx, fiber.MethodGet, "/api/v1/tags", nil)
	if err != nil {
		return nil, err
	}
	if status == fiber.StatusUnauthorized {
		return []string{}, nil
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var tags []string
	if err := json.Unmarshal(env.Data, &tags); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return tags, nil
}

// Me resolves the current identity; an unauthenticated session yields
// (nil, nil), not an error.
func (g *HTTPGateway) Me(ctx context.Context) (*Identity, error) {
	status, env, err := g.do(ctx, fiber.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return nil, err
	}
	if status == fiber.StatusUnauthorized {
		return nil, nil
	}
	if status != fiber.StatusOK {
		return nil, g.opError(status, env)
	}

	var identity Identity
	if err := json.Unmarshal(env.Data, &identity); err != nil {
		return nil, fmt.Errorf("operation failed: malformed response")
	}
	return &identity, nil
}

func (g *HTTPGateway) Logout(ctx context.Context) error {
	status, env, err := g.do(ctx, fiber.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	if status != fiber.StatusOK {
		return g.opError(status, env)
	}
	return nil
}

// LoginURL is where a user agent should be sent to start the sign-in flow.
func (g *HTTPGateway) LoginURL() string {
	return g.BaseURL + "/auth/login"
}
