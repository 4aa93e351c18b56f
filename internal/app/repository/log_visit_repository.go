package repository

import (
	"context"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"go.uber.org/zap"
)

type logVisitRepository struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogVisitRepository writes every visit to the log and keeps nothing. ListAll
// answers with a fixed sample set so the admin surface has something to show.
func NewLogVisitRepository(logger *zap.Logger) VisitRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logVisitRepository{logger: logger, now: time.Now}
}

func (r *logVisitRepository) Append(_ context.Context, visit *model.VisitRecord) error {
	r.logger.Info(model.FormatVisitLog(visit), zap.String("visit_id", visit.ID))
	return nil
}

func (r *logVisitRepository) ListAll(_ context.Context) ([]model.VisitRecord, error) {
	return SampleVisits(r.now()), nil
}

// SampleVisits returns the illustrative records served by the log sink, stamped relative to now.
func SampleVisits(now time.Time) []model.VisitRecord {
	lat, lng := -34.9285, 138.6007
	return []model.VisitRecord{
		{
			ID:           "1",
			Timestamp:    now.Add(-30 * time.Minute).UTC(),
			Email:        "user@example.com",
			Source:       "newsletter",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Platform:     "Win32",
			Language:     "en-US",
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			Timezone:     "Australia/Adelaide",
			Referrer:     "https://mailchimp.com",
			Latitude:     &lat,
			Longitude:    &lng,
			NetworkInfo: model.NetworkInfo{
				IPAddress: "203.123.45.67",
				Country:   "Australia",
				Region:    "South Australia",
				City:      "Adelaide",
			},
		},
		{
			ID:           "2",
			Timestamp:    now.Add(-2 * time.Hour).UTC(),
			Email:        "test@gmail.com",
			Source:       "campaign_2024",
			UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Platform:     "MacIntel",
			Language:     "en-AU",
			ScreenWidth:  1440,
			ScreenHeight: 900,
			Timezone:     "Australia/Melbourne",
			Referrer:     "https://theculinarycreative.com.au",
			NetworkInfo: model.NetworkInfo{
				IPAddress: "192.168.1.100",
				Country:   "Australia",
				Region:    "Victoria",
				City:      "Melbourne",
			},
		},
	}
}
