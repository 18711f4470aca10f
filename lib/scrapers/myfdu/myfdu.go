// Package myfdu scrapes the student-info portal, currently just the
// per-course grade table.
package myfdu

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/myfdu")

const DefaultBaseURL = "https://my.fudan.edu.cn"

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

type GradeRecord struct {
	Code     string
	Year     string
	Semester string
	Name     string
	Credit   float64
	// letter grade as printed by the portal, "P" marks a pass/fail
	// course that stays out of GPA computation entirely
	Grade string
	Point float64
}

// GetGrades scrapes the full grade table, newest term first (portal
// order). Rows the portal renders without a numeric credit are a hard
// error, grades are required data.
func (c *Client) GetGrades(ctx context.Context) ([]GradeRecord, error) {
	ctx, span := tracer.Start(ctx, "client:GetGrades")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/list/bks_xx_cj",
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch grade table")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse grade table")
		return nil, err
	}

	var grades []GradeRecord
	var rowErr error
	doc.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		if rowErr != nil {
			return
		}
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td.Text())
		})
		cells = textutil.CleanCells(cells)
		if len(cells) < 6 {
			rowErr = fmt.Errorf("grade row %d: expected 6 cells, got %d", i, len(cells))
			return
		}

		credit, err := strconv.ParseFloat(cells[4], 64)
		if err != nil {
			rowErr = fmt.Errorf("grade row %d: parse credit: %w", i, err)
			return
		}

		grades = append(grades, GradeRecord{
			Code:     cells[0],
			Year:     cells[1],
			Semester: cells[2],
			Name:     cells[3],
			Credit:   credit,
			Grade:    cells[5],
			Point:    GradeToPoint(cells[5]),
		})
	})
	if rowErr != nil {
		span.SetStatus(codes.Error, rowErr.Error())
		return nil, rowErr
	}

	return grades, nil
}

// GradesOfLatestTerm returns the leading run of records sharing the
// first record's year and semester.
func GradesOfLatestTerm(grades []GradeRecord) []GradeRecord {
	if len(grades) == 0 {
		return nil
	}
	year := grades[0].Year
	semester := grades[0].Semester
	for i, g := range grades {
		if g.Year != year || g.Semester != semester {
			return grades[:i]
		}
	}
	return grades
}

// ComputeGPA recomputes a credit-weighted GPA from individual grades,
// leaving pass/fail rows out of both the weighted sum and the credit
// denominator.
func ComputeGPA(grades []GradeRecord) (gpa float64, credits float64) {
	for _, g := range grades {
		if g.Grade == "P" {
			continue
		}
		gpa += g.Point * g.Credit
		credits += g.Credit
	}
	if credits == 0 {
		return 0, 0
	}
	return gpa / credits, credits
}

func GradeToPoint(grade string) float64 {
	switch grade {
	case "A":
		return 4.0
	case "A-":
		return 3.7
	case "B+":
		return 3.3
	case "B":
		return 3.0
	case "B-":
		return 2.7
	case "C+":
		return 2.3
	case "C":
		return 2.0
	case "C-":
		return 1.7
	case "D+":
		return 1.3
	case "D":
		return 1.0
	case "F", "P":
		return 0.0
	default:
		slog.Warn("unknown letter grade", "grade", grade)
		return 0.0
	}
}
