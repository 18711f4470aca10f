package uis

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"fduassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is an immutable descriptor of one portal request. It is
// produced by a sub-service client and consumed once by Dispatch.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Query  url.Values
	Form   map[string]string
	// report the redirect response itself instead of following it,
	// the logout endpoint signals success with its redirect status
	NoFollowRedirects bool
}

type Response struct {
	Status int
	// final URL after redirects, the state machine and the
	// enrollment client validate outcomes against it
	URL  string
	Body []byte
}

// Dispatch performs exactly one primary request, then recovers
// transparently from the two known failure pages:
//
//   - the duplicate-login page: the original request is replayed once
//     against the href of the first anchor on the page
//   - the rate-limit page: the original request is reissued once,
//     unmodified
//
// At most one retry happens per call regardless of what the retried
// response contains. Transport errors propagate unretried, non-2xx
// statuses are the caller's judgment to make. Every call blocks for
// a fixed delay before returning to stay under the portal's implicit
// rate limit.
func (s *Session) Dispatch(ctx context.Context, req Request) (Response, error) {
	ctx, span := tracer.Start(ctx, "session:Dispatch", trace.WithAttributes(
		attribute.String("method", req.Method),
		attribute.String("url", req.URL),
	))
	defer span.End()
	defer time.Sleep(s.delay)

	res, err := s.do(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "transport error")
		return Response{}, err
	}

	switch Classify(res.Body) {
	case SignatureDuplicateLogin:
		span.AddEvent("duplicate login page detected")
		target := duplicateLoginTarget(ctx, res)
		if target == "" {
			// no anchor to follow, hand the page back as-is
			return res, nil
		}
		slog.DebugContext(ctx, "recovering from duplicate login", "redirect", target)
		retry := req
		retry.URL = target
		res, err = s.do(ctx, retry)
		if err != nil {
			span.SetStatus(codes.Error, "transport error on duplicate-login retry")
			return Response{}, err
		}
		return res, nil
	case SignatureRateLimited:
		span.AddEvent("rate limit page detected")
		slog.DebugContext(ctx, "rate limited, reissuing request", "url", req.URL)
		res, err = s.do(ctx, req)
		if err != nil {
			span.SetStatus(codes.Error, "transport error on rate-limit retry")
			return Response{}, err
		}
		return res, nil
	default:
		return res, nil
	}
}

func (s *Session) do(ctx context.Context, req Request) (Response, error) {
	if req.NoFollowRedirects {
		ctx = context.WithValue(ctx, noFollowKey{}, struct{}{})
	}

	r := s.http.R().SetContext(ctx)
	if len(req.Header) > 0 {
		r.SetHeaders(req.Header)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if len(req.Form) > 0 {
		r.SetFormData(req.Form)
	}

	res, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return Response{}, err
	}

	finalURL := req.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}

	return Response{
		Status: res.StatusCode(),
		URL:    finalURL,
		Body:   res.Body(),
	}, nil
}

// duplicateLoginTarget pulls the href of the first anchor out of a
// duplicate-login page, resolved against the page's own URL. Returns
// "" when the page carries no usable anchor.
func duplicateLoginTarget(ctx context.Context, res Response) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return ""
	}

	base, baseErr := url.Parse(res.URL)
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a")) {
		if anchor.Href == "" {
			continue
		}
		if baseErr != nil {
			return anchor.Href
		}
		ref, err := url.Parse(anchor.Href)
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}
