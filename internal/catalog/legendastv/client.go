package legendastv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"legendastv/internal/logging"
	"legendastv/internal/services"
)

const (
	providerName       = "legendastv"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
)

// ErrLoginFailed is returned when the site rejects the credentials.
var ErrLoginFailed = errors.New("legendastv: login rejected")

// Options configure a Client.
type Options struct {
	BaseURL    string
	Login      string
	Password   string
	Language   string
	MaxPages   int
	PosterDir  string
	HTTPClient *http.Client
	Limiter    *services.Limiter
	Logger     *slog.Logger
}

// Client talks to the Legendas.TV website.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *services.Limiter
	logger    *slog.Logger
	language  string
	maxPages  int
	posterDir string
	loggedIn  bool
}

// New builds a client. It does not contact the site; call Login for that.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = "http://legendas.tv"
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("legendastv: parse base url: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("legendastv: cookie jar: %w", err)
		}
		// never mutate a caller supplied client
		cloned := *client
		cloned.Jar = jar
		client = &cloned
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = &services.Limiter{Name: providerName}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	return &Client{
		baseURL:   baseURL,
		http:      client,
		limiter:   limiter,
		logger:    logger,
		language:  strings.TrimSpace(opts.Language),
		maxPages:  maxPages,
		posterDir: strings.TrimSpace(opts.PosterDir),
	}, nil
}

// Login posts the credentials to the login form. The session cookie is kept
// in the client's jar.
func (c *Client) Login(ctx context.Context, login, password string) error {
	form := url.Values{}
	form.Set("data[User][username]", login)
	form.Set("data[User][password]", password)

	c.logger.Info("logging into legendas.tv",
		logging.String("url", c.resolve("/login")),
		logging.String("login", login),
	)
	body, err := c.fetch(ctx, http.MethodPost, "/login", form)
	if err != nil {
		return err
	}
	// a rejected login renders the form again
	if strings.Contains(string(body), `name="data[User][password]"`) {
		return ErrLoginFailed
	}
	c.loggedIn = true
	return nil
}

// LoggedIn reports whether Login succeeded.
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// resolve turns a site-relative reference into an absolute URL. Refs are
// kept verbatim since search terms carry pre-escaped segments.
func (c *Client) resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL.String() + ref
}

// fetch performs a request through the limiter and returns the whole body.
func (c *Client) fetch(ctx context.Context, method, ref string, form url.Values) ([]byte, error) {
	var body []byte
	err := c.limiter.Do(ctx, func() error {
		resp, err := c.do(ctx, method, ref, form)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	})
	return body, err
}

func (c *Client) do(ctx context.Context, method, ref string, form url.Values) (*http.Response, error) {
	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}
	target := c.resolve(ref)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", "legendastv")
	c.logger.Debug("legendas.tv request", logging.String("method", method), logging.String("url", target))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s failed (%s): %s", method, target, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// quote escapes text for use as a single path segment, "/" included.
func quote(text string) string {
	return url.QueryEscape(strings.TrimSpace(text))
}
