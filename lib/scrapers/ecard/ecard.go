// Package ecard is the client for the campus-card payment portal.
package ecard

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"fduassist-backend/lib/scrapers/uis"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ecard")

const DefaultBaseURL = "https://ecard.fudan.edu.cn"

type Options struct {
	BaseURL string
}

type Client struct {
	session *uis.Session
	baseURL string
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

// GetPaymentQRCode returns the one-time payment code embedded in the
// QR page's #myText input.
func (c *Client) GetPaymentQRCode(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetPaymentQRCode")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/epay/wxpage/fudan/zfm/qrcode",
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch qr page")
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse qr page")
		return "", err
	}

	code := doc.Find("#myText").AttrOr("value", "")
	if code == "" {
		span.SetStatus(codes.Error, "qr code input not found")
		return "", fmt.Errorf("qr code input not found")
	}
	return code, nil
}
