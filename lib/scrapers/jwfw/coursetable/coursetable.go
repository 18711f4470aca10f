// Package coursetable reconstructs a weekly course schedule from the
// hand-rolled JavaScript block the records portal embeds in its
// course-table page. The page builds the timetable client-side out of
// repeated statements of the shape
//
//	activity = new TaskActivity(id, teacher, "code(section)", name, roomId, room, weekMask);
//	index =2*unitCount+4;
//	table0.activities[index][table0.activities[index].length]=activity;
//
// where the index/store pair repeats once per (day, period) cell the
// activity occupies. The package is pure and stateless.
package coursetable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Slot struct {
	// 0-indexed day of week and period within the day
	Weekday int
	Period  int
}

type Activity struct {
	Id      string
	Teacher string
	// course code with section suffix, e.g. "ECON130003.01"
	Course string
	Name   string
	RoomId string
	Room   string
	// one rune per week of the term, index 0 = week 0
	WeekMask string
	Weeks    []int
	Slots    []Slot
}

// ParseError is scoped to a single activity block, the surrounding
// scan keeps going.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("course table: %s (at offset %d)", e.Msg, e.Offset)
}

// activity-construction head: `activity = new <ctor>(`. The page also
// constructs the table object itself (`var table0 = new CourseTable(...)`),
// so the assignment target is what discriminates activity blocks.
var ctorRegex = regexp.MustCompile(`\bactivity\s*=\s*new\s+[A-Za-z_$][\w$]*\s*\(`)

// `index =D*unitCount+P;` with the previous statement's terminating
// `;` and any line breaks still in front of the cursor
var indexRegex = regexp.MustCompile(`^[\s;]*index\s*=\s*(\d+)\s*\*\s*unitCount\s*\+\s*(\d+)\s*;`)

// `tableN.activities[index][...]=activity;`
var storeRegex = regexp.MustCompile(`^\s*[\w$]+\.activities\[index\]\[[^=]*\]\s*=\s*activity\s*;`)

// ParseActivities scans raw page text for every activity block in
// document order. Malformed blocks produce one error each and are
// skipped, well-formed blocks around them still parse; callers decide
// whether to abort on the first error or keep the partial result. An
// activity with no trailing index/store pairs is legal and comes back
// with an empty slot list.
func ParseActivities(text string) ([]Activity, []error) {
	var activities []Activity
	var errs []error

	pos := 0
	for {
		loc := ctorRegex.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		head := pos + loc[0]
		argsStart := pos + loc[1]

		args, argsEnd, err := parseArgs(text, argsStart)
		if err != nil {
			errs = append(errs, err)
			pos = argsStart
			continue
		}
		pos = argsEnd

		if len(args) < 7 {
			errs = append(errs, &ParseError{
				Offset: head,
				Msg:    fmt.Sprintf("expected 7 constructor arguments, got %d", len(args)),
			})
			continue
		}

		activity := Activity{
			Id:       args[0],
			Teacher:  args[1],
			Course:   args[2],
			Name:     args[3],
			RoomId:   args[4],
			Room:     args[5],
			WeekMask: args[6],
		}

		// the trailing run of index/store pairs belongs to this
		// activity, it ends at the next construction or at EOF
		for {
			m := indexRegex.FindStringSubmatch(text[pos:])
			if m == nil {
				break
			}
			pos += len(m[0])

			store := storeRegex.FindString(text[pos:])
			if store == "" {
				break
			}
			pos += len(store)

			day, _ := strconv.Atoi(m[1])
			period, _ := strconv.Atoi(m[2])
			activity.Slots = append(activity.Slots, Slot{Weekday: day, Period: period})
		}

		weeks, err := DecodeWeeks(activity.WeekMask)
		if err != nil {
			errs = append(errs, &ParseError{
				Offset: head,
				Msg:    fmt.Sprintf("activity %q: %s", activity.Course, err),
			})
			continue
		}
		activity.Weeks = weeks

		activities = append(activities, activity)
	}

	return activities, errs
}

// parseArgs walks the constructor argument list rune-wise from just
// past the opening parenthesis, honoring quoted strings, and returns
// the unquoted arguments plus the offset just past the closing ')'.
func parseArgs(text string, start int) ([]string, int, error) {
	var args []string
	var current strings.Builder
	var quote rune

	flush := func() {
		args = append(args, strings.TrimSpace(current.String()))
		current.Reset()
	}

	for i, r := range text[start:] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			flush()
		case r == ')':
			flush()
			return args, start + i + 1, nil
		default:
			current.WriteRune(r)
		}
	}

	return nil, len(text), &ParseError{
		Offset: start,
		Msg:    "unterminated constructor argument list",
	}
}

// DecodeWeeks expands an occurrence bitmask into the 0-indexed week
// numbers whose bit is set. Any rune besides '0' and '1' is an error.
func DecodeWeeks(mask string) ([]int, error) {
	var weeks []int
	for i, r := range mask {
		switch r {
		case '1':
			weeks = append(weeks, i)
		case '0':
		default:
			return nil, fmt.Errorf("invalid week bitmask rune %q at position %d", r, i)
		}
	}
	return weeks, nil
}

// EncodeWeeks is the inverse of DecodeWeeks for a term of the given
// length in weeks. Out-of-range week numbers are ignored.
func EncodeWeeks(weeks []int, length int) string {
	mask := make([]byte, length)
	for i := range mask {
		mask[i] = '0'
	}
	for _, w := range weeks {
		if w >= 0 && w < length {
			mask[w] = '1'
		}
	}
	return string(mask)
}
