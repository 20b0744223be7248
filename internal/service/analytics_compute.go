package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

const (
	trendWindowDays    = 7
	trendThreshold     = 0.10
	topItemsLimit      = 5
	severityReduction  = 0.80
	frequencyReduction = 0.75
	lowSeverityCeiling = 4
	incidentFreeDays   = 3
	floatTolerance     = 1e-9
)

// ComputeSummary aggregates entries as of now. Entries with malformed dates
// still count towards totals but are skipped for time-based breakdowns.
func ComputeSummary(entries []models.BehaviorEntry, now time.Time) models.AnalyticsSummary {
	summary := models.AnalyticsSummary{
		TotalIncidents:       len(entries),
		SeverityDistribution: make(map[int]int, models.MaxSeverity),
		FunctionDistribution: make(map[models.BehaviorFunction]int, len(models.BehaviorFunctions)),
		Trend:                models.TrendInsufficientData,
		GeneratedAt:          now.UTC(),
	}
	for sev := models.MinSeverity; sev <= models.MaxSeverity; sev++ {
		summary.SeverityDistribution[sev] = 0
	}
	for _, fn := range models.BehaviorFunctions {
		summary.FunctionDistribution[fn] = 0
	}

	antecedents := newCounter()
	behaviors := newCounter()
	locations := newCounter()
	total := 0
	for _, e := range entries {
		total += e.Severity
		summary.SeverityDistribution[e.Severity]++
		summary.FunctionDistribution[e.Function]++
		antecedents.add(e.Antecedent)
		behaviors.add(e.Behavior)
		locations.add(e.Location)

		if hour, ok := parseHour(e.Time); ok {
			summary.HourlyDistribution[hour]++
		}
		if day, err := time.Parse(models.DateLayout, e.Date); err == nil {
			summary.WeekdayDistribution[day.Weekday()]++
		}
	}
	if len(entries) > 0 {
		summary.AverageSeverity = round2(float64(total) / float64(len(entries)))
	}
	summary.TopAntecedents = antecedents.top(topItemsLimit)
	summary.TopBehaviors = behaviors.top(topItemsLimit)
	summary.TopLocations = locations.top(topItemsLimit)

	summary.Trend, summary.RecentAverageSeverity, summary.PriorAverageSeverity = computeTrend(entries, now)
	return summary
}

// computeTrend compares the average severity of the last seven days
// (today inclusive) against the seven days before.
func computeTrend(entries []models.BehaviorEntry, now time.Time) (models.Trend, float64, float64) {
	today := truncateDay(now)
	recentStart := today.AddDate(0, 0, -(trendWindowDays - 1))
	priorStart := recentStart.AddDate(0, 0, -trendWindowDays)

	var recentSum, recentCount, priorSum, priorCount int
	for _, e := range entries {
		day, err := time.Parse(models.DateLayout, e.Date)
		if err != nil {
			continue
		}
		switch {
		case !day.Before(recentStart) && !day.After(today):
			recentSum += e.Severity
			recentCount++
		case !day.Before(priorStart) && day.Before(recentStart):
			priorSum += e.Severity
			priorCount++
		}
	}
	if recentCount == 0 || priorCount == 0 {
		return models.TrendInsufficientData, averageOf(recentSum, recentCount), averageOf(priorSum, priorCount)
	}

	recent := float64(recentSum) / float64(recentCount)
	prior := float64(priorSum) / float64(priorCount)
	change := (recent - prior) / prior
	trend := models.TrendStable
	switch {
	case change <= -trendThreshold+floatTolerance:
		trend = models.TrendImproving
	case change >= trendThreshold-floatTolerance:
		trend = models.TrendWorsening
	}
	return trend, round2(recent), round2(prior)
}

// weekBucket keeps raw sums so threshold checks never see rounded averages.
type weekBucket struct {
	start time.Time
	count int
	sum   int
	max   int
}

func (b *weekBucket) average() float64 {
	if b == nil {
		return 0
	}
	return averageOf(b.sum, b.count)
}

func bucketByWeek(entries []models.BehaviorEntry) map[string]*weekBucket {
	buckets := make(map[string]*weekBucket)
	for _, e := range entries {
		day, err := time.Parse(models.DateLayout, e.Date)
		if err != nil {
			continue
		}
		key := isoWeekKey(day)
		b, ok := buckets[key]
		if !ok {
			b = &weekBucket{start: weekStart(day)}
			buckets[key] = b
		}
		b.count++
		b.sum += e.Severity
		if e.Severity > b.max {
			b.max = e.Severity
		}
	}
	return buckets
}

// ComputeWeeklyStats buckets entries by ISO week, oldest first.
func ComputeWeeklyStats(entries []models.BehaviorEntry) []models.WeeklyStat {
	buckets := bucketByWeek(entries)
	stats := make([]models.WeeklyStat, 0, len(buckets))
	for key, b := range buckets {
		stats = append(stats, models.WeeklyStat{
			Week:            key,
			WeekStart:       b.start.Format(models.DateLayout),
			Count:           b.count,
			AverageSeverity: round2(b.average()),
			MaxSeverity:     b.max,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].WeekStart < stats[j].WeekStart })
	return stats
}

// DetectMilestones compares the last completed ISO week with the one before
// it and checks the incident-free streak ending at now.
func DetectMilestones(entries []models.BehaviorEntry, now time.Time) []models.Milestone {
	milestones := make([]models.Milestone, 0, 4)
	if len(entries) == 0 {
		return milestones
	}

	buckets := bucketByWeek(entries)
	latestStart := weekStart(truncateDay(now)).AddDate(0, 0, -7)
	latestWeek := isoWeekKey(latestStart)
	latest := buckets[latestWeek]
	if latest == nil {
		latest = &weekBucket{}
	}
	previous := buckets[isoWeekKey(latestStart.AddDate(0, 0, -7))]
	if previous == nil {
		previous = &weekBucket{}
	}
	detectedAt := now.UTC()

	// latestSum/latestCount <= ratio * prevSum/prevCount, cross-multiplied.
	if previous.count > 0 && latest.count > 0 &&
		float64(latest.sum*previous.count) <= severityReduction*float64(previous.sum*latest.count)+floatTolerance {
		milestones = append(milestones, models.Milestone{
			Type:        models.MilestoneSeverityReduction,
			Title:       "Severity reduced",
			Description: fmt.Sprintf("Average severity fell from %.2f to %.2f week over week.", previous.average(), latest.average()),
			Value:       round2(1 - latest.average()/previous.average()),
			Week:        latestWeek,
			DetectedAt:  detectedAt,
		})
	}
	if previous.count > 0 && float64(latest.count) <= float64(previous.count)*frequencyReduction+floatTolerance {
		milestones = append(milestones, models.Milestone{
			Type:        models.MilestoneFrequencyReduction,
			Title:       "Fewer incidents",
			Description: fmt.Sprintf("Incidents dropped from %d to %d week over week.", previous.count, latest.count),
			Value:       round2(1 - float64(latest.count)/float64(previous.count)),
			Week:        latestWeek,
			DetectedAt:  detectedAt,
		})
	}
	if latest.count > 0 && latest.max < lowSeverityCeiling {
		milestones = append(milestones, models.Milestone{
			Type:        models.MilestoneLowSeverityWeek,
			Title:       "Low severity week",
			Description: fmt.Sprintf("No incident reached severity %d last week.", lowSeverityCeiling),
			Value:       float64(latest.max),
			Week:        latestWeek,
			DetectedAt:  detectedAt,
		})
	}
	if days, ok := daysSinceLastIncident(entries, now); ok && days >= incidentFreeDays {
		milestones = append(milestones, models.Milestone{
			Type:        models.MilestoneIncidentFreeStreak,
			Title:       "Incident-free streak",
			Description: fmt.Sprintf("%d days without a recorded incident.", days),
			Value:       float64(days),
			DetectedAt:  detectedAt,
		})
	}
	return milestones
}

func daysSinceLastIncident(entries []models.BehaviorEntry, now time.Time) (int, bool) {
	var last time.Time
	for _, e := range entries {
		day, err := time.Parse(models.DateLayout, e.Date)
		if err != nil {
			continue
		}
		if day.After(last) {
			last = day
		}
	}
	if last.IsZero() {
		return 0, false
	}
	days := int(truncateDay(now).Sub(last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return truncateDay(day).AddDate(0, 0, -offset)
}

func isoWeekKey(day time.Time) string {
	year, week := day.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func parseHour(hhmm string) (int, bool) {
	head, _, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

func averageOf(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type counter struct {
	counts map[string]int
	labels map[string]string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}, labels: map[string]string{}}
}

func (c *counter) add(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	key := strings.ToLower(label)
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = label
	}
	c.counts[key]++
}

func (c *counter) top(n int) []models.CountItem {
	items := make([]models.CountItem, 0, len(c.counts))
	for key, count := range c.counts {
		items = append(items, models.CountItem{Label: c.labels[key], Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Label < items[j].Label
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
