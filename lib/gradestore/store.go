// Package gradestore keeps a time series of GPA snapshots per student
// so day-over-day changes can be tracked.
package gradestore

import (
	"context"
	"database/sql"
	"time"

	"fduassist-backend/lib/timezone"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Snapshot struct {
	Time    time.Time
	Major   string
	GPA     float64
	Credits float64
	Ranking int
	Total   int
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Push records a snapshot for a student. At most one snapshot per
// calendar day is kept, pushing twice on the same day replaces the
// earlier row.
func (s Store) Push(ctx context.Context, student string, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	startOfToday := time.Date(
		snap.Time.Year(), snap.Time.Month(), snap.Time.Day(),
		0, 0, 0, 0, timezone.Location,
	).Unix()
	startOfTomorrow := time.Date(
		snap.Time.Year(), snap.Time.Month(), snap.Time.Day()+1,
		0, 0, 0, 0, timezone.Location,
	).Unix()

	_, err = tx.ExecContext(
		ctx,
		`delete from gpa_snapshot
		 where student = ? and time >= ? and time < ?`,
		student, startOfToday, startOfTomorrow,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`insert into gpa_snapshot
		 (student, time, major, gpa, credits, ranking, total)
		 values (?, ?, ?, ?, ?, ?, ?)`,
		student, snap.Time.Unix(),
		snap.Major, snap.GPA, snap.Credits, snap.Ranking, snap.Total,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Pull returns every snapshot recorded for a student, oldest first.
func (s Store) Pull(ctx context.Context, student string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select time, major, gpa, credits, ranking, total
		 from gpa_snapshot where student = ?
		 order by time asc`,
		student,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		var unix int64
		err := rows.Scan(
			&unix, &snap.Major, &snap.GPA,
			&snap.Credits, &snap.Ranking, &snap.Total,
		)
		if err != nil {
			return nil, err
		}
		snap.Time = time.Unix(unix, 0).In(timezone.Location)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
