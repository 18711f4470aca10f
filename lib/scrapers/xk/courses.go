package xk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

type Query struct {
	// lesson number, e.g. ECON130213.01
	No string
	// course code, e.g. ECON130213
	Code string
	// display name
	Name string
}

type Course struct {
	Id       int     `json:"id"`
	No       string  `json:"no"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Credits  float64 `json:"credits"`
	Teachers string  `json:"teachers"`
	Amount   Amount  `json:"-"`
}

type Amount struct {
	Total    int `json:"lc"`
	Selected int `json:"sc"`
}

// the query endpoint answers with two bare JS literals: a course
// array and an id -> seat-amount object
var lessonDataRegex = regexp.MustCompile(`(\[.+\])[\s\S]*?(\{.+\})`)

var bareKeyRegex = regexp.MustCompile(`([a-zA-Z]+?):`)

// NormalizeJSON rewrites the portal's JavaScript object literals into
// strict JSON: bare keys get quoted and single quotes become double
// quotes.
func NormalizeJSON(js string) string {
	out := bareKeyRegex.ReplaceAllString(js, `"$1":`)
	return strings.ReplaceAll(out, "'", `"`)
}

// QueryCourses posts a lesson query against the active election
// profile and joins the seat amounts onto the course records.
func (c *Client) QueryCourses(ctx context.Context, query Query) ([]Course, error) {
	ctx, span := tracer.Start(ctx, "client:QueryCourses")
	defer span.End()

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/stdElectCourse!queryLesson.action",
		Query:  url.Values{"profileId": {strconv.Itoa(c.profileID)}},
		Form: map[string]string{
			"lessonNo":   query.No,
			"courseCode": query.Code,
			"courseName": query.Name,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to query lessons")
		return nil, err
	}
	if res.Status != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status querying lessons")
		return nil, fmt.Errorf("query lessons: status %d", res.Status)
	}

	groups := lessonDataRegex.FindSubmatch(res.Body)
	if groups == nil {
		span.SetStatus(codes.Error, "lesson data not found in response")
		return nil, fmt.Errorf("lesson data not found in response")
	}

	var courses []Course
	err = json.Unmarshal([]byte(NormalizeJSON(string(groups[1]))), &courses)
	if err != nil {
		span.SetStatus(codes.Error, "failed to unmarshal course list")
		return nil, fmt.Errorf("unmarshal course list: %w", err)
	}

	amounts := map[string]Amount{}
	err = json.Unmarshal([]byte(NormalizeJSON(string(groups[2]))), &amounts)
	if err != nil {
		span.SetStatus(codes.Error, "failed to unmarshal seat amounts")
		return nil, fmt.Errorf("unmarshal seat amounts: %w", err)
	}

	for i := range courses {
		if amount, ok := amounts[strconv.Itoa(courses[i].Id)]; ok {
			courses[i].Amount = amount
		}
	}
	return courses, nil
}

// GetCourses queries the full lesson list once and caches it for the
// client's lifetime.
func (c *Client) GetCourses(ctx context.Context) ([]Course, error) {
	if len(c.courses) > 0 {
		return c.courses, nil
	}
	courses, err := c.QueryCourses(ctx, Query{})
	if err != nil {
		return nil, err
	}
	c.courses = courses
	return c.courses, nil
}

// FindCourse picks the course a query refers to: exact lesson-number,
// code or normalized-name matches win, otherwise the closest name by
// Jaro-Winkler similarity above 0.9 is accepted. Names go through
// textutil.NormalizeName on both sides so casing and stray whitespace
// from the portal never break a match.
func FindCourse(query Query, courses []Course) (Course, error) {
	wanted := textutil.NormalizeName(query.Name)

	for _, course := range courses {
		if (query.No != "" && course.No == query.No) ||
			(query.Code != "" && course.Code == query.Code) ||
			(wanted != "" && textutil.NormalizeName(course.Name) == wanted) {
			return course, nil
		}
	}

	if wanted != "" {
		var best Course
		var bestSimilarity float64
		for _, course := range courses {
			similarity := matchr.JaroWinkler(wanted, textutil.NormalizeName(course.Name), false)
			if similarity > bestSimilarity {
				bestSimilarity = similarity
				best = course
			}
		}
		if bestSimilarity >= 0.9 {
			return best, nil
		}
	}

	return Course{}, fmt.Errorf("no course matches %+v", query)
}

// the operation result page wraps its verdict in the first <div>,
// success contains this marker
const operationSuccessMarker = "成功"

func (c *Client) operateCourse(ctx context.Context, id int, elect bool) (bool, error) {
	form := map[string]string{}
	if elect {
		form["optype"] = "true"
		form["operator0"] = fmt.Sprintf("%d:true:0", id)
	} else {
		form["optype"] = "false"
		form["operator0"] = fmt.Sprintf("%d:false", id)
	}

	res, err := c.session.Dispatch(ctx, uis.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/stdElectCourse!batchOperator.action",
		Query:  url.Values{"profileId": {strconv.Itoa(c.profileID)}},
		Form:   form,
	})
	if err != nil {
		return false, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return false, err
	}
	div := doc.Find("div").First()
	if div.Length() == 0 {
		return false, fmt.Errorf("operation result not found")
	}

	verdict := strings.Join(strings.Fields(div.Text()), "")
	return strings.Contains(verdict, operationSuccessMarker), nil
}

// ElectCourse enrolls into the course the query resolves to and
// reports whether the portal accepted it (a full course is a false,
// not an error).
func (c *Client) ElectCourse(ctx context.Context, query Query) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:ElectCourse")
	defer span.End()

	courses, err := c.QueryCourses(ctx, query)
	if err != nil {
		return false, err
	}
	course, err := FindCourse(query, courses)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return c.operateCourse(ctx, course.Id, true)
}

// WithdrawCourse drops the course the query resolves to.
func (c *Client) WithdrawCourse(ctx context.Context, query Query) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:WithdrawCourse")
	defer span.End()

	courses, err := c.QueryCourses(ctx, query)
	if err != nil {
		return false, err
	}
	course, err := FindCourse(query, courses)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return c.operateCourse(ctx, course.Id, false)
}
