// Package zlapp is the client for the daily health-check portal.
package zlapp

import (
	"context"
	"encoding/json"
	"net/http"

	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/zlapp")

const DefaultBaseURL = "https://zlapp.fudan.edu.cn"

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

// HasCheckedInToday compares today's date in Shanghai time against
// the latest check-in date buried at d.info.date of the info JSON.
// A missing or malformed field means "not checked in yet", never an
// error, only transport failures surface.
func (c *Client) HasCheckedInToday(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:HasCheckedInToday")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/ncov/wap/fudan/get-info",
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch check-in info")
		return false, err
	}

	var payload struct {
		D struct {
			Info struct {
				Date string `json:"date"`
			} `json:"info"`
		} `json:"d"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		span.AddEvent("malformed check-in info json")
		return false, nil
	}

	return payload.D.Info.Date == timezone.Today(timezone.Now()), nil
}
