// Package uis implements the single sign-on front door shared by every
// campus portal: one authenticated Session holds the cookie jar, the
// login/logout state machine and the resilient request dispatcher that
// all sub-service clients call into.
package uis

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"fduassist-backend/lib/htmlutil"
	"fduassist-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/uis")

const (
	DefaultLoginURL        = "https://uis.fudan.edu.cn/authserver/login"
	DefaultLogoutURL       = "https://uis.fudan.edu.cn/authserver/logout"
	DefaultLoginSuccessURL = "https://uis.fudan.edu.cn/authserver/index.do"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// the portal soft-bans clients that fire requests back to back,
	// every dispatch waits this long before handing the body back
	dispatchDelay = 1500 * time.Millisecond
)

var (
	ErrLoginFailed  = fmt.Errorf("login failed")
	ErrLogoutFailed = fmt.Errorf("logout failed")
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Options struct {
	// all default to the UIS production endpoints, tests point
	// them at an httptest server
	LoginURL        string
	LogoutURL       string
	LoginSuccessURL string
	// status the logout endpoint answers with when it worked,
	// observed with redirects suppressed
	LogoutStatus int
}

// Session is one logged-in identity: a shared cookie jar, write-once
// credentials and the authentication state machine. It is not safe
// for concurrent use, callers must serialize Login/Logout/Dispatch
// against one Session. Independent Sessions are fully parallel.
type Session struct {
	http     *resty.Client
	opts     Options
	username string
	password string
	state    State
	delay    time.Duration
}

func NewSession(opts Options) (*Session, error) {
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.LogoutURL == "" {
		opts.LogoutURL = DefaultLogoutURL
	}
	if opts.LoginSuccessURL == "" {
		opts.LoginSuccessURL = DefaultLoginSuccessURL
	}
	if opts.LogoutStatus == 0 {
		opts.LogoutStatus = http.StatusFound
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetHeaders(map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
		"Cache-Control":   "no-cache",
		"DNT":             "1",
	})
	client.SetTimeout(time.Second * 30)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(checkRedirect))

	telemetry.InstrumentResty(client, "scrapers/uis/http")

	return &Session{
		http:  client,
		opts:  opts,
		state: StateAnonymous,
		delay: dispatchDelay,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// Credentials returns the identity stored by the last Login call.
// Sub-service clients with an independent login endpoint (the
// enrollment portal) replay them there.
func (s *Session) Credentials() (username, password string) {
	return s.username, s.password
}

// Login drives Anonymous/Failed -> Authenticating -> Authenticated.
// Success is a strict string comparison of the final response URL
// against the configured landing URL, the portal signals outcomes
// purely through redirect targets, never through body markers.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	s.username = username
	s.password = password
	s.state = StateAuthenticating

	res, err := s.Dispatch(ctx, Request{
		Method: http.MethodGet,
		URL:    s.opts.LoginURL,
	})
	if err != nil {
		s.state = StateFailed
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		s.state = StateFailed
		span.SetStatus(codes.Error, "failed to parse login page")
		return err
	}

	form := htmlutil.HiddenInputs(doc)
	form["username"] = username
	form["password"] = password

	res, err = s.Dispatch(ctx, Request{
		Method: http.MethodPost,
		URL:    s.opts.LoginURL,
		Form:   form,
	})
	if err != nil {
		s.state = StateFailed
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}

	if res.URL != s.opts.LoginSuccessURL {
		s.state = StateFailed
		span.SetStatus(codes.Error, "landed on an unexpected url")
		return fmt.Errorf("%w: landed on %s", ErrLoginFailed, res.URL)
	}

	s.state = StateAuthenticated
	return nil
}

// Logout is best-effort. On an unexpected status the session stays
// Authenticated and the cookie jar is left alone, the remote state
// is unknown at that point.
func (s *Session) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:Logout")
	defer span.End()

	res, err := s.Dispatch(ctx, Request{
		Method:            http.MethodGet,
		URL:               s.opts.LogoutURL,
		Query:             url.Values{"service": {""}},
		NoFollowRedirects: true,
	})
	if err != nil {
		span.SetStatus(codes.Error, "logout request failed")
		return err
	}
	if res.Status != s.opts.LogoutStatus {
		span.SetStatus(codes.Error, "unexpected logout status")
		return fmt.Errorf("%w: status %d", ErrLogoutFailed, res.Status)
	}

	s.state = StateAnonymous
	return nil
}

type noFollowKey struct{}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.Context().Value(noFollowKey{}) != nil {
		return http.ErrUseLastResponse
	}
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	return nil
}
