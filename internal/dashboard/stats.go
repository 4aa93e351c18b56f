package dashboard

import (
	"strings"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
)

// Stats are the dashboard's headline counters.
type Stats struct {
	Total     int
	WithEmail int
	Countries int
	Today     int
}

// Filter keeps records whose email, IP, country, city or source contains q,
// ignoring case. An empty q returns records unchanged.
func Filter(records []model.VisitRecord, q string) []model.VisitRecord {
	if q == "" {
		return records
	}
	needle := strings.ToLower(q)

	out := make([]model.VisitRecord, 0, len(records))
	for _, r := range records {
		for _, field := range []string{r.Email, r.IPAddress, r.Country, r.City, r.Source} {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// ComputeStats counts records, those carrying an email, distinct countries and
// records whose client timestamp falls on now's calendar day in now's location.
func ComputeStats(records []model.VisitRecord, now time.Time) Stats {
	stats := Stats{Total: len(records)}
	countries := make(map[string]struct{})
	y, m, d := now.Date()

	for _, r := range records {
		if r.Email != "" {
			stats.WithEmail++
		}
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
		if r.Timestamp.IsZero() {
			continue
		}
		ry, rm, rd := r.Timestamp.In(now.Location()).Date()
		if ry == y && rm == m && rd == d {
			stats.Today++
		}
	}
	stats.Countries = len(countries)
	return stats
}
