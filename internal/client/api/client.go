// Package api is the HTTP client for the bulletin backend. Every call goes
// through one request path that attaches the bearer token, refreshes it on
// 401, and unwraps the server's response envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"bulletin/internal/client/imaging"
	"bulletin/internal/client/session"
)

const apiPrefix = "/api/v1"

type Client struct {
	base    string
	http    *http.Client
	session *session.Session
	log     *slog.Logger
	now     func() time.Time
}

func New(baseURL string, sess *session.Session, log *slog.Logger) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: sess,
		log:     log,
		now:     time.Now,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Signup(ctx context.Context, username, password, name string) (*User, error) {
	body := map[string]string{"username": username, "password": password, "name": name}
	var out struct {
		User User `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/signup", jsonBody(body), false, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Signin exchanges credentials for a token pair and stores it on the
// session.
func (c *Client) Signin(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		User         User   `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/signin", jsonBody(body), false, &out); err != nil {
		return err
	}
	c.session.SetTokens(out.AccessToken, out.RefreshToken)
	c.session.SetUsername(out.User.Username)
	return nil
}

func (c *Client) ListPosts(ctx context.Context, page, size int) (*ListResult, error) {
	path := fmt.Sprintf("/boards?page=%d&size=%d", page, size)
	var out ListResult
	if err := c.call(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCategories(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.call(ctx, http.MethodGet, "/boards/categories", nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPostDetail(ctx context.Context, id int64) (*PostDetail, error) {
	var out PostDetail
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/boards/%d", id), nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePost(ctx context.Context, data PostData, file *imaging.File) (int64, error) {
	body, err := postForm(data, file)
	if err != nil {
		return 0, err
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/boards", body, true, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int64, data PostData, file *imaging.File) error {
	body, err := postForm(data, file)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/boards/%d", id), body, true, nil)
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/boards/%d", id), nil, true, nil)
}

// FetchImage downloads raw image bytes. A path-only URL is resolved against
// the API base so the values the server hands out in image_url work as-is.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "/") {
		url = c.base + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// bodyFunc rebuilds the request body so a 401-triggered retry can resend it.
type bodyFunc func() (io.Reader, string)

func jsonBody(v any) bodyFunc {
	data, _ := json.Marshal(v)
	return func() (io.Reader, string) {
		return bytes.NewReader(data), "application/json"
	}
}

// postForm encodes the multipart body once; the returned bodyFunc replays
// the same bytes on retry.
func postForm(data PostData, file *imaging.File) (bodyFunc, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	_ = w.WriteField("title", data.Title)
	_ = w.WriteField("content", data.Content)
	_ = w.WriteField("category", data.Category)
	if file != nil {
		part, err := w.CreateFormFile("image", file.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	raw := buf.Bytes()
	contentType := w.FormDataContentType()
	return func() (io.Reader, string) {
		return bytes.NewReader(raw), contentType
	}, nil
}

func (c *Client) call(ctx context.Context, method, path string, body bodyFunc, authed bool, out any) error {
	if authed && c.session.AccessExpired(c.now()) && c.session.RefreshToken() != "" {
		if err := c.refresh(ctx); err != nil {
			c.log.Debug("proactive token refresh failed", "error", err)
		}
	}

	status, err := c.send(ctx, method, path, body, authed, out)
	if err == nil {
		return nil
	}

	// One refresh-and-retry on an authenticated 401.
	if authed && status == http.StatusUnauthorized && c.session.RefreshToken() != "" {
		if rerr := c.refresh(ctx); rerr != nil {
			return err
		}
		_, err = c.send(ctx, method, path, body, authed, out)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body bodyFunc, authed bool, out any) (int, error) {
	var reader io.Reader
	var contentType string
	if body != nil {
		reader, contentType = body()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+apiPrefix+path, reader)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	var env envelope
	if uerr := json.Unmarshal(raw, &env); uerr != nil {
		if resp.StatusCode >= 400 {
			// Proxies and panics can produce non-envelope error bodies.
			return resp.StatusCode, &Error{Status: resp.StatusCode}
		}
		return resp.StatusCode, fmt.Errorf("unexpected response from server: %w", uerr)
	}

	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response data: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// refresh rotates the token pair. The server invalidates the old refresh
// token on use, so a failed rotation clears the session rather than keeping
// a token that may already be burned.
func (c *Client) refresh(ctx context.Context) error {
	body := map[string]string{"refresh_token": c.session.RefreshToken()}
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", jsonBody(body), false, &out); err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			c.session.Clear()
		}
		return err
	}
	c.session.SetTokens(out.AccessToken, out.RefreshToken)
	return nil
}
