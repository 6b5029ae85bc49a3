package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
)

const dateLayout = "2006-01-02"

// ValidationError marks a bad stats request. Handlers map it to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RunSource lists finished root conversation runs inside a date range.
type RunSource interface {
	ListRootRuns(ctx context.Context, from, to time.Time) ([]runlog.Run, error)
}

// TopQuestionSource exposes the largest question clusters.
type TopQuestionSource interface {
	TopQuestions(ctx context.Context, limit int) ([]dedup.Cluster, error)
}

// DayCount is one point of the per-day query series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TopQuestion is one entry of the most-asked list.
type TopQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// Overview aggregates usage over a date range. AverageResponseTime is in
// seconds; SuccessRate is a percentage (0-100).
type Overview struct {
	StartDate           string        `json:"start_date"`
	EndDate             string        `json:"end_date"`
	TotalQueries        int           `json:"total_queries"`
	AverageResponseTime float64       `json:"average_response_time"`
	SuccessRate         float64       `json:"success_rate"`
	ActiveUsers         int           `json:"active_users"`
	TimeSeries          []DayCount    `json:"time_series"`
	TopQuestions        []TopQuestion `json:"top_questions"`
}

// Service aggregates recorded conversation runs into usage statistics.
type Service struct {
	runs RunSource
	top  TopQuestionSource
	topN int
}

// NewService creates a new stats service
func NewService(runs RunSource, top TopQuestionSource, topN int) *Service {
	if topN <= 0 {
		topN = 10
	}
	return &Service{runs: runs, top: top, topN: topN}
}

// Overview validates the date range and aggregates the runs inside it.
// Validation failures return before any store access.
func (s *Service) Overview(ctx context.Context, startDate, endDate string) (*Overview, error) {
	from, to, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	runs, err := s.runs.ListRootRuns(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := &Overview{
		StartDate:  startDate,
		EndDate:    endDate,
		TimeSeries: []DayCount{},
	}
	out.TotalQueries = len(runs)

	var (
		totalDuration time.Duration
		timed         int
		succeeded     int
		users         = map[string]struct{}{}
		perDay        = map[string]int{}
	)
	for _, run := range runs {
		if run.Error == "" {
			succeeded++
		}
		if run.EndedAt != nil {
			totalDuration += run.EndedAt.Sub(run.StartedAt)
			timed++
		}
		if run.UserID != "" {
			users[run.UserID] = struct{}{}
		}
		perDay[run.StartedAt.Format(dateLayout)]++
	}

	if timed > 0 {
		out.AverageResponseTime = totalDuration.Seconds() / float64(timed)
	}
	if len(runs) > 0 {
		out.SuccessRate = float64(succeeded) / float64(len(runs)) * 100
	}
	out.ActiveUsers = len(users)

	for date, count := range perDay {
		out.TimeSeries = append(out.TimeSeries, DayCount{Date: date, Count: count})
	}
	sort.Slice(out.TimeSeries, func(i, j int) bool {
		return out.TimeSeries[i].Date < out.TimeSeries[j].Date
	})

	if s.top != nil {
		clusters, err := s.top.TopQuestions(ctx, s.topN)
		if err != nil {
			return nil, fmt.Errorf("top questions: %w", err)
		}
		for _, c := range clusters {
			out.TopQuestions = append(out.TopQuestions, TopQuestion{Question: c.Question, Count: c.Count})
		}
	}

	return out, nil
}

// parseRange validates both dates and returns the inclusive range
// [from 00:00, to 24:00).
func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Reason: "required"}
	}
	if endDate == "" {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Reason: "required"}
	}

	from, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	to, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}

	return from, to.AddDate(0, 0, 1), nil
}
