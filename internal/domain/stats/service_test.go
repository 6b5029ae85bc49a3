package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
)

type fakeRunSource struct {
	runs   []runlog.Run
	err    error
	called bool
}

func (f *fakeRunSource) ListRootRuns(ctx context.Context, from, to time.Time) ([]runlog.Run, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

type fakeTopSource struct {
	clusters []dedup.Cluster
	called   bool
}

func (f *fakeTopSource) TopQuestions(ctx context.Context, limit int) ([]dedup.Cluster, error) {
	f.called = true
	if limit < len(f.clusters) {
		return f.clusters[:limit], nil
	}
	return f.clusters, nil
}

func run(userID string, started time.Time, duration time.Duration, runErr string) runlog.Run {
	ended := started.Add(duration)
	return runlog.Run{
		Name:      runlog.RunConversation,
		UserID:    userID,
		StartedAt: started,
		EndedAt:   &ended,
		Error:     runErr,
	}
}

func TestOverview_Aggregates(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	runs := &fakeRunSource{runs: []runlog.Run{
		run("u1", day1, 2*time.Second, ""),
		run("u2", day1.Add(time.Hour), 4*time.Second, ""),
		run("u1", day2, 3*time.Second, "model timeout"),
	}}
	top := &fakeTopSource{clusters: []dedup.Cluster{
		{Question: "Học phí là bao nhiêu?", Count: 12},
	}}
	svc := NewService(runs, top, 10)

	got, err := svc.Overview(context.Background(), "2026-03-01", "2026-03-02")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	if got.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", got.TotalQueries)
	}
	if got.AverageResponseTime != 3.0 {
		t.Errorf("AverageResponseTime = %v, want 3.0", got.AverageResponseTime)
	}
	if got.SuccessRate < 66.6 || got.SuccessRate > 66.7 {
		t.Errorf("SuccessRate = %v, want 2/3 as a percentage", got.SuccessRate)
	}
	if got.ActiveUsers != 2 {
		t.Errorf("ActiveUsers = %d, want 2", got.ActiveUsers)
	}

	if len(got.TimeSeries) != 2 {
		t.Fatalf("TimeSeries has %d points, want 2", len(got.TimeSeries))
	}
	if got.TimeSeries[0].Date != "2026-03-01" || got.TimeSeries[0].Count != 2 {
		t.Errorf("TimeSeries[0] = %+v", got.TimeSeries[0])
	}
	if got.TimeSeries[1].Date != "2026-03-02" || got.TimeSeries[1].Count != 1 {
		t.Errorf("TimeSeries[1] = %+v", got.TimeSeries[1])
	}

	if len(got.TopQuestions) != 1 || got.TopQuestions[0].Count != 12 {
		t.Errorf("TopQuestions = %+v", got.TopQuestions)
	}
}

func TestOverview_SingleDayRange(t *testing.T) {
	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	runs := &fakeRunSource{runs: []runlog.Run{
		run("u1", day, time.Second, ""),
		run("u1", day.Add(6*time.Hour), time.Second, ""),
	}}
	svc := NewService(runs, nil, 10)

	got, err := svc.Overview(context.Background(), "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if len(got.TimeSeries) != 1 {
		t.Fatalf("TimeSeries has %d points, want 1", len(got.TimeSeries))
	}
	if got.TimeSeries[0].Count != 2 {
		t.Errorf("Single day count = %d, want 2", got.TimeSeries[0].Count)
	}
}

func TestOverview_EmptyRange(t *testing.T) {
	svc := NewService(&fakeRunSource{}, nil, 10)

	got, err := svc.Overview(context.Background(), "2026-03-01", "2026-03-02")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if got.TotalQueries != 0 || got.SuccessRate != 0 || got.AverageResponseTime != 0 {
		t.Errorf("Empty range aggregates = %+v", got)
	}
	if got.TimeSeries == nil || len(got.TimeSeries) != 0 {
		t.Errorf("TimeSeries must be an empty slice, got %v", got.TimeSeries)
	}
}

func TestOverview_ValidationRunsBeforeStoreAccess(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2026-03-02"},
		{"missing end", "2026-03-01", ""},
		{"malformed start", "03/01/2026", "2026-03-02"},
		{"malformed end", "2026-03-01", "yesterday"},
		{"start after end", "2026-03-05", "2026-03-02"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := &fakeRunSource{}
			top := &fakeTopSource{}
			svc := NewService(runs, top, 10)

			_, err := svc.Overview(context.Background(), tc.start, tc.end)
			if err == nil {
				t.Fatal("Expected validation error")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Error type = %T, want *ValidationError", err)
			}
			if runs.called || top.called {
				t.Error("No store access may happen on validation failure")
			}
		})
	}
}

func TestOverview_RunSourceFailure(t *testing.T) {
	svc := NewService(&fakeRunSource{err: errors.New("db down")}, nil, 10)

	if _, err := svc.Overview(context.Background(), "2026-03-01", "2026-03-02"); err == nil {
		t.Fatal("Expected error when the run source fails")
	}
}
