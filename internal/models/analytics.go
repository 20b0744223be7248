package models

import "time"

// Trend compares recent severity with the preceding window.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendWorsening        Trend = "worsening"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// MilestoneType identifies a detected improvement.
type MilestoneType string

const (
	MilestoneSeverityReduction  MilestoneType = "severity_reduction"
	MilestoneFrequencyReduction MilestoneType = "frequency_reduction"
	MilestoneLowSeverityWeek    MilestoneType = "low_severity_week"
	MilestoneIncidentFreeStreak MilestoneType = "incident_free_streak"
)

// AnalyticsFilter scopes analytics to a date range and optionally a profile.
type AnalyticsFilter struct {
	DateFrom  string `json:"dateFrom,omitempty"`
	DateTo    string `json:"dateTo,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// CountItem is a label with its occurrence count.
type CountItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates a set of behavior entries.
type AnalyticsSummary struct {
	TotalIncidents        int                      `json:"totalIncidents"`
	AverageSeverity       float64                  `json:"averageSeverity"`
	SeverityDistribution  map[int]int              `json:"severityDistribution"`
	FunctionDistribution  map[BehaviorFunction]int `json:"functionDistribution"`
	TopAntecedents        []CountItem              `json:"topAntecedents"`
	TopBehaviors          []CountItem              `json:"topBehaviors"`
	TopLocations          []CountItem              `json:"topLocations"`
	HourlyDistribution    [24]int                  `json:"hourlyDistribution"`
	WeekdayDistribution   [7]int                   `json:"weekdayDistribution"`
	Trend                 Trend                    `json:"trend"`
	RecentAverageSeverity float64                  `json:"recentAverageSeverity"`
	PriorAverageSeverity  float64                  `json:"priorAverageSeverity"`
	GeneratedAt           time.Time                `json:"generatedAt"`
}

// WeeklyStat summarizes one ISO week (Monday start).
type WeeklyStat struct {
	Week            string  `json:"week"`
	WeekStart       string  `json:"weekStart"`
	Count           int     `json:"count"`
	AverageSeverity float64 `json:"averageSeverity"`
	MaxSeverity     int     `json:"maxSeverity"`
}

// Milestone is a detected improvement worth celebrating.
type Milestone struct {
	Type        MilestoneType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Value       float64       `json:"value"`
	Week        string        `json:"week,omitempty"`
	DetectedAt  time.Time     `json:"detectedAt"`
}

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	AICalls                  uint64    `json:"aiCalls"`
	AIFailures               uint64    `json:"aiFailures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
