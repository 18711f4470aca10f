// Package studentdata composes the portal scrapers behind one service:
// schedule, grades, a reconciled GPA summary, the daily health check
// and GPA history snapshots.
package studentdata

import (
	"context"
	"log/slog"

	"fduassist-backend/lib/gradestore"
	"fduassist-backend/lib/scrapers/jwfw"
	"fduassist-backend/lib/scrapers/jwfw/coursetable"
	"fduassist-backend/lib/scrapers/myfdu"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/scrapers/zlapp"
	"fduassist-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/studentdata")

type Options struct {
	Jwfw  jwfw.Options
	Myfdu myfdu.Options
	Zlapp zlapp.Options
}

type Service struct {
	jwfw  *jwfw.Client
	myfdu *myfdu.Client
	zlapp *zlapp.Client
	store gradestore.Store
}

func NewService(session *uis.Session, store gradestore.Store, opts Options) Service {
	return Service{
		jwfw:  jwfw.NewClient(session, opts.Jwfw),
		myfdu: myfdu.NewClient(session, opts.Myfdu),
		zlapp: zlapp.NewClient(session, opts.Zlapp),
		store: store,
	}
}

func (s Service) GetSchedule(ctx context.Context) ([]coursetable.Activity, error) {
	return s.jwfw.GetSchedule(ctx)
}

func (s Service) GetGrades(ctx context.Context) ([]myfdu.GradeRecord, error) {
	return s.myfdu.GetGrades(ctx)
}

// GetGPA reconciles the two GPA sources. The registrar's ranking table
// is authoritative when the own row is visible; otherwise the summary
// is recomputed from the transcript, which loses ranking information
// but keeps the GPA itself. When both sources fail the summary is
// empty, not an error, callers treat it as "unknown right now".
func (s Service) GetGPA(ctx context.Context) (jwfw.GPA, error) {
	ctx, span := tracer.Start(ctx, "service:GetGPA")
	defer span.End()

	summary, err := s.jwfw.GetActualGPA(ctx)
	if err == nil {
		return summary, nil
	}
	slog.WarnContext(ctx, "gpa ranking table unavailable, falling back to transcript", "err", err)

	grades, err := s.myfdu.GetGrades(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "both gpa sources failed")
		slog.WarnContext(ctx, "transcript unavailable too, reporting empty summary", "err", err)
		return jwfw.GPA{}, nil
	}

	gpa, credits := myfdu.ComputeGPA(grades)
	return jwfw.GPA{GPA: gpa, Credits: credits}, nil
}

func (s Service) HasCheckedInToday(ctx context.Context) (bool, error) {
	return s.zlapp.HasCheckedInToday(ctx)
}

// SnapshotGPA fetches the current summary and records it in the grade
// store under the student's id.
func (s Service) SnapshotGPA(ctx context.Context, student string) (jwfw.GPA, error) {
	ctx, span := tracer.Start(ctx, "service:SnapshotGPA")
	defer span.End()

	summary, err := s.GetGPA(ctx)
	if err != nil {
		return jwfw.GPA{}, err
	}

	err = s.store.Push(ctx, student, gradestore.Snapshot{
		Time:    timezone.Now(),
		Major:   summary.Major,
		GPA:     summary.GPA,
		Credits: summary.Credits,
		Ranking: summary.Ranking,
		Total:   summary.Total,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to record gpa snapshot")
		return jwfw.GPA{}, err
	}
	return summary, nil
}

// GPAHistory returns the recorded snapshots for a student, oldest
// first.
func (s Service) GPAHistory(ctx context.Context, student string) ([]gradestore.Snapshot, error) {
	return s.store.Pull(ctx, student)
}
