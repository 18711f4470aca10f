// Package xk is the client for the course-enrollment portal. The
// portal has its own login endpoint behind the shared SSO cookie jar
// and signals success with a redirect to its home page, so the client
// replays the session's credentials there before anything else works.
package xk

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fduassist-backend/lib/scrapers/uis"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/xk")

const DefaultBaseURL = "https://xk.fudan.edu.cn/xk"

var (
	ErrLoginFailed = fmt.Errorf("enrollment portal login failed")
	ErrNoProfile   = fmt.Errorf("election profile id not found")
)

type Options struct {
	BaseURL string
}

type Client struct {
	session   *uis.Session
	baseURL   string
	profileID int
	courses   []Course
}

func NewClient(session *uis.Session, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Client{
		session: session,
		baseURL: opts.BaseURL,
	}
}

// Login signs in to the enrollment portal with the credentials stored
// on the session, then resolves and activates the election profile
// the course queries run under. Success is a prefix match on the
// final URL, the portal bounces to home.action with tracking query
// parameters appended.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	username, password := c.session.Credentials()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/login.action",
		Form: map[string]string{
			"username": username,
			"password": password,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}
	if !strings.HasPrefix(res.URL, c.baseURL+"/home.action") {
		span.SetStatus(codes.Error, "landed on an unexpected url")
		return fmt.Errorf("%w: landed on %s", ErrLoginFailed, res.URL)
	}

	electURL := c.baseURL + "/stdElectCourse!defaultPage.action"

	res, err = c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    electURL,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch election page")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse election page")
		return err
	}
	// first numeric hidden input in document order is the profile id,
	// map iteration would make the choice nondeterministic
	c.profileID = 0
	doc.Find(`input[type="hidden"]`).EachWithBreak(func(_ int, input *goquery.Selection) bool {
		id, err := strconv.Atoi(input.AttrOr("value", ""))
		if err == nil && id != 0 {
			c.profileID = id
			return false
		}
		return true
	})
	if c.profileID == 0 {
		span.SetStatus(codes.Error, ErrNoProfile.Error())
		return ErrNoProfile
	}

	// the profile must be activated once or course queries come
	// back empty
	res, err = c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodPost,
		URL:    electURL,
		Form: map[string]string{
			"electionProfile.id": strconv.Itoa(c.profileID),
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to activate election profile")
		return err
	}
	if res.Status != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status activating election profile")
		return fmt.Errorf("activate election profile: status %d", res.Status)
	}

	return nil
}

func (c *Client) ProfileID() int {
	return c.profileID
}
