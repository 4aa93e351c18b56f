package model

import "time"

// CountEntry is one bucket of a top-N breakdown.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DayCount is the number of visits seen on one UTC calendar day (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates the visit set for the analytics endpoint.
type AnalyticsSummary struct {
	TotalVisits  int `json:"totalVisits"`
	UniqueEmails int `json:"uniqueEmails"`
	// UniqueVisitors is a Bloom filter estimate over IP address and user agent pairs.
	UniqueVisitors int           `json:"uniqueVisitors"`
	TopSources     []CountEntry  `json:"topSources"`
	TopCountries   []CountEntry  `json:"topCountries"`
	TopDevices     []CountEntry  `json:"topDevices"`
	VisitsByDay    []DayCount    `json:"visitsByDay"`
	RecentVisits   []VisitRecord `json:"recentVisits"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}
