// Package jwfw is the client for the academic-records portal. It
// rides on an authenticated uis.Session, the dispatcher underneath
// already recovers from the portal's duplicate-login and rate-limit
// pages.
package jwfw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fduassist-backend/lib/scrapers/jwfw/coursetable"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jwfw")

const DefaultBaseURL = "https://jwfw.fudan.edu.cn/eams"

// ErrRowNotFound means the ranking table held no row for the logged-in
// student, every row was anonymized. GPA callers fall back to manual
// computation on it.
var ErrRowNotFound = fmt.Errorf("own row not found in gpa ranking table")

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

// GetSchedule fetches the course-table page and reconstructs the
// weekly schedule from the embedded script block. Activities that
// fail to parse are reported through the joined error, the ones that
// parsed fine are still returned.
func (c *Client) GetSchedule(ctx context.Context) ([]coursetable.Activity, error) {
	ctx, span := tracer.Start(ctx, "client:GetSchedule")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/courseTableForStd.action",
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch course table")
		return nil, err
	}

	activities, errs := coursetable.ParseActivities(string(res.Body))
	if len(activities) == 0 && len(errs) == 0 {
		span.SetStatus(codes.Error, "no activity block found")
		return nil, fmt.Errorf("course table: no activity block found")
	}
	return activities, errors.Join(errs...)
}

type GPA struct {
	Major   string
	GPA     float64
	Credits float64
	// rank within the rows sharing the student's major, the table
	// covers every major of the school
	Ranking    int
	Total      int
	Percentage float64
}

func (g GPA) String() string {
	return fmt.Sprintf(
		"gpa: %v, ranking: %d/%d %.1f%%, credits: %v",
		g.GPA, g.Ranking, g.Total, g.Percentage*100, g.Credits,
	)
}

// GetActualGPA reads the pre-aggregated ranking table. Every row but
// the student's own is anonymized with a leading "*", which is how
// the own row is picked out.
func (c *Client) GetActualGPA(ctx context.Context) (GPA, error) {
	ctx, span := tracer.Start(ctx, "client:GetActualGPA")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/myActualGpa!search.action",
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch gpa ranking table")
		return GPA{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse gpa ranking table")
		return GPA{}, err
	}

	var rows [][]string
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td.Text())
		})
		cells = textutil.CleanCells(cells)
		if len(cells) >= 7 {
			rows = append(rows, cells)
		}
	})

	var out GPA
	found := false
	for _, cells := range rows {
		if strings.HasPrefix(cells[0], "*") {
			continue
		}
		// the one row that is not anonymized is the student's own
		out.Major = cells[3]
		out.GPA, err = strconv.ParseFloat(cells[5], 64)
		if err != nil {
			span.SetStatus(codes.Error, "failed to parse gpa cell")
			return GPA{}, fmt.Errorf("parse gpa cell: %w", err)
		}
		out.Credits, err = strconv.ParseFloat(cells[6], 64)
		if err != nil {
			span.SetStatus(codes.Error, "failed to parse credits cell")
			return GPA{}, fmt.Errorf("parse credits cell: %w", err)
		}
		found = true
		break
	}
	if !found {
		span.SetStatus(codes.Error, ErrRowNotFound.Error())
		return GPA{}, ErrRowNotFound
	}

	// rows come pre-sorted by gpa descending, so the position of the
	// own row among its major is the ranking
	for _, cells := range rows {
		if cells[3] != out.Major {
			continue
		}
		out.Total++
		if !strings.HasPrefix(cells[0], "*") {
			out.Ranking = out.Total
		}
	}
	if out.Total != 0 {
		out.Percentage = float64(out.Ranking) / float64(out.Total)
	}

	return out, nil
}
