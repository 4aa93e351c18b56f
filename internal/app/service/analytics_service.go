package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/repository"
)

const (
	topN              = 5
	recentVisitsLimit = 10
	visitorFalsePos   = 0.001
)

// AnalyticsService aggregates the visit set.
type AnalyticsService interface {
	Summary(ctx context.Context) (*model.AnalyticsSummary, error)
}

type analyticsService struct {
	repo repository.VisitRepository
	now  func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.VisitRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func (s *analyticsService) Summary(ctx context.Context) (*model.AnalyticsSummary, error) {
	visits, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	summary := Summarize(visits)
	summary.GeneratedAt = s.now().UTC()
	return summary, nil
}

// Summarize computes the analytics summary of visits.
func Summarize(visits []model.VisitRecord) *model.AnalyticsSummary {
	summary := &model.AnalyticsSummary{
		TotalVisits:  len(visits),
		RecentVisits: []model.VisitRecord{},
	}

	emails := make(map[string]struct{})
	sources := make(map[string]int)
	countries := make(map[string]int)
	devices := make(map[string]int)
	days := make(map[string]int)

	n := uint(len(visits))
	if n == 0 {
		n = 1
	}
	seen := bloom.NewWithEstimates(n, visitorFalsePos)

	for i := range visits {
		v := &visits[i]
		if v.Email != "" {
			emails[v.Email] = struct{}{}
		}
		if !seen.TestOrAddString(v.IPAddress + "|" + v.UserAgent) {
			summary.UniqueVisitors++
		}
		sources[orUnknown(v.Source, "Direct")]++
		countries[orUnknown(v.Country, "Unknown")]++
		devices[ParseUserAgent(v.UserAgent).Label()]++
		if at := v.SeenAt(); !at.IsZero() {
			days[at.UTC().Format(time.DateOnly)]++
		}
	}

	summary.UniqueEmails = len(emails)
	summary.TopSources = topCounts(sources, topN)
	summary.TopCountries = topCounts(countries, topN)
	summary.TopDevices = topCounts(devices, topN)

	summary.VisitsByDay = make([]model.DayCount, 0, len(days))
	for d, c := range days {
		summary.VisitsByDay = append(summary.VisitsByDay, model.DayCount{Date: d, Count: c})
	}
	sort.Slice(summary.VisitsByDay, func(i, j int) bool {
		return summary.VisitsByDay[i].Date < summary.VisitsByDay[j].Date
	})

	recent := make([]model.VisitRecord, len(visits))
	copy(recent, visits)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].SeenAt().After(recent[j].SeenAt())
	})
	if len(recent) > recentVisitsLimit {
		recent = recent[:recentVisitsLimit]
	}
	summary.RecentVisits = recent

	return summary
}

func topCounts(counts map[string]int, limit int) []model.CountEntry {
	out := make([]model.CountEntry, 0, len(counts))
	for k, c := range counts {
		out = append(out, model.CountEntry{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
