// Package apiclient talks to the program's REST backend.
//
// Every call takes the caller's *session.Session. A token, when present, is
// sent as "Authorization: Token <token>". Any 401 clears the session before
// the *HTTPError is returned, so callers only need to send the user to login.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		log:     logger.WithField("component", "apiclient"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Blob is a binary response body plus what the server said about it.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	// absolute skips base URL resolution.
	absolute bool
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return req, errors.Wrap(err, "encode request body")
	}
	req.body = bytes.NewReader(raw)
	req.contentType = "application/json"
	return req, nil
}

// do returns the response for 2xx statuses; the caller closes the body.
func (c *Client) do(ctx context.Context, sess *session.Session, r request) (*http.Response, error) {
	target := r.path
	if !r.absolute {
		target = c.baseURL + r.path
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s", r.method, r.path)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json, application/pdf, */*")
	if sess != nil && sess.Authenticated() && c.sameOrigin(req.URL) {
		req.Header.Set("Authorization", "Token "+sess.Token())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("backend unreachable")
		return nil, &transportError{op: r.method + " " + r.path, err: err}
	}
	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	httpErr := &HTTPError{Status: resp.StatusCode, Body: body}
	if resp.StatusCode == http.StatusUnauthorized && sess != nil {
		if err := sess.ClearCredentials(); err != nil {
			c.log.Error().Err(err).Msg("clear session after 401")
		}
	}
	return nil, httpErr
}

func (c *Client) sameOrigin(u *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Scheme, u.Scheme) && strings.EqualFold(base.Host, u.Host)
}

func (c *Client) doJSON(ctx context.Context, sess *session.Session, r request, out any) error {
	resp, err := c.do(ctx, sess, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", r.method, r.path)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, sess *session.Session, r request) ([]byte, error) {
	resp, err := c.do(ctx, sess, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{op: r.method + " " + r.path, err: err}
	}
	return raw, nil
}

func (c *Client) doBlob(ctx context.Context, sess *session.Session, r request) (Blob, error) {
	resp, err := c.do(ctx, sess, r)
	if err != nil {
		return Blob{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Blob{}, &transportError{op: r.method + " " + r.path, err: err}
	}
	return Blob{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		return strings.TrimSpace(params["filename"])
	}
	return ""
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and stores it in sess.
func (c *Client) Login(ctx context.Context, sess *session.Session, username, password string) error {
	req, err := jsonRequest(http.MethodPost, "/api/login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	var payload loginResponse
	if err := c.doJSON(ctx, nil, req, &payload); err != nil {
		return err
	}
	if payload.Token == "" {
		return errors.New("api: login response carried no token")
	}
	return sess.SetCredentials(session.Credentials{Token: payload.Token, Username: username})
}

func (c *Client) Logout(sess *session.Session) error {
	return sess.ClearCredentials()
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, nil, request{method: http.MethodGet, path: "/api/health/"}, nil)
}
