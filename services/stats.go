package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easelcms/easel/models"
)

// DailyCount is one calendar-day bucket in a traffic series.
type DailyCount struct {
	Date   string `json:"date"`
	Views  int64  `json:"views"`
	Visits int64  `json:"visits"`
}

// PostStats is the traffic summary for a single post.
type PostStats struct {
	TotalViews  int64        `json:"total_views"`
	TotalVisits int64        `json:"total_visits"`
	Series      []DailyCount `json:"series"`
}

// OverviewStats is the combined traffic summary for a set of posts.
type OverviewStats struct {
	TotalViews  int64        `json:"total_views"`
	TotalVisits int64        `json:"total_visits"`
	MostViewed  *models.Post `json:"most_viewed"`
	Series      []DailyCount `json:"series"`
}

// StatsAggregator computes view/visit statistics from the append-only traffic
// records. It performs no scoping of its own: callers pass in posts already
// filtered to the correct visibility and publication state.
type StatsAggregator struct {
	db  *gorm.DB
	loc *time.Location
}

// NewStatsAggregator creates an aggregator bucketing days in the given zone.
func NewStatsAggregator(db *gorm.DB, loc *time.Location) *StatsAggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsAggregator{db: db, loc: loc}
}

// StatsForPost returns lifetime totals and a zero-filled per-day series over
// the trailing windowDays for one post.
func (a *StatsAggregator) StatsForPost(post *models.Post, windowDays int) (PostStats, error) {
	res, err := a.aggregate([]string{post.ID}, windowDays)
	if err != nil {
		return PostStats{}, err
	}
	return PostStats{
		TotalViews:  res.TotalViews,
		TotalVisits: res.TotalVisits,
		Series:      res.Series,
	}, nil
}

// StatsForPosts combines totals and the per-day series across all given posts
// over the trailing windowDays, and flags the most viewed post. An empty input
// still yields a full zero-filled series.
func (a *StatsAggregator) StatsForPosts(posts []*models.Post, windowDays int) (OverviewStats, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	res, err := a.aggregate(ids, windowDays)
	if err != nil {
		return OverviewStats{}, err
	}

	if len(posts) > 0 {
		best, bestCount := posts[0], res.viewsPerPost[posts[0].ID]
		for _, p := range posts[1:] {
			if c := res.viewsPerPost[p.ID]; c > bestCount {
				best, bestCount = p, c
			}
		}
		res.MostViewed = best
	}

	return OverviewStats{
		TotalViews:  res.TotalViews,
		TotalVisits: res.TotalVisits,
		MostViewed:  res.MostViewed,
		Series:      res.Series,
	}, nil
}

type aggregateResult struct {
	TotalViews   int64
	TotalVisits  int64
	MostViewed   *models.Post
	Series       []DailyCount
	viewsPerPost map[string]int64
}

func (a *StatsAggregator) aggregate(postIDs []string, windowDays int) (aggregateResult, error) {
	if windowDays < 1 {
		windowDays = 1
	}

	res := aggregateResult{
		Series:       a.emptySeries(windowDays),
		viewsPerPost: map[string]int64{},
	}
	if len(postIDs) == 0 {
		return res, nil
	}

	type perPost struct {
		PostID string
		N      int64
	}
	var viewCounts []perPost
	if err := a.db.Model(&models.View{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&viewCounts).Error; err != nil {
		return res, err
	}
	for _, c := range viewCounts {
		res.viewsPerPost[c.PostID] = c.N
		res.TotalViews += c.N
	}

	if err := a.db.Model(&models.Visit{}).
		Where("post_id IN ?", postIDs).
		Count(&res.TotalVisits).Error; err != nil {
		return res, err
	}

	windowStart := a.windowStart(windowDays)

	index := make(map[string]int, len(res.Series))
	for i, b := range res.Series {
		index[b.Date] = i
	}

	viewDays, err := a.dailyCounts(&models.View{}, postIDs, windowStart)
	if err != nil {
		return res, err
	}
	for day, n := range viewDays {
		if i, ok := index[day]; ok {
			res.Series[i].Views = n
		}
	}

	visitDays, err := a.dailyCounts(&models.Visit{}, postIDs, windowStart)
	if err != nil {
		return res, err
	}
	for day, n := range visitDays {
		if i, ok := index[day]; ok {
			res.Series[i].Visits = n
		}
	}

	return res, nil
}

// dailyCounts rolls the window up in SQL, one row per calendar day, so memory
// stays bounded by the window length rather than the traffic volume.
func (a *StatsAggregator) dailyCounts(model interface{}, postIDs []string, windowStart time.Time) (map[string]int64, error) {
	expr, args := a.dayExpr()
	var rows []struct {
		Day string
		N   int64
	}
	if err := a.db.Model(model).
		Select(expr+" AS day, COUNT(*) AS n", args...).
		Where("post_id IN ? AND created_at >= ?", postIDs, windowStart).
		Group("day").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.N
	}
	return counts, nil
}

// dayExpr is the SQL expression bucketing created_at into the aggregator's
// calendar day. MySQL rows carry local wall-clock time (loc=Local in the
// DSN), so the shift is the delta between the target zone and the process
// zone; CONVERT_TZ would need the server's timezone tables loaded. The sqlite
// driver stores offset-qualified timestamps that strftime normalizes to UTC
// before applying the modifier.
func (a *StatsAggregator) dayExpr() (string, []interface{}) {
	now := time.Now()
	_, target := now.In(a.loc).Zone()
	if a.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', created_at, ?)", []interface{}{fmt.Sprintf("%d seconds", target)}
	}
	_, local := now.Zone()
	return "DATE_FORMAT(DATE_ADD(created_at, INTERVAL ? SECOND), '%Y-%m-%d')", []interface{}{target - local}
}

// windowStart is the local midnight windowDays-1 days back, so the window
// always contains exactly windowDays calendar days including today.
func (a *StatsAggregator) windowStart(windowDays int) time.Time {
	now := time.Now().In(a.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	return midnight.AddDate(0, 0, -(windowDays - 1))
}

// emptySeries produces the zero-filled day buckets, oldest first.
func (a *StatsAggregator) emptySeries(windowDays int) []DailyCount {
	start := a.windowStart(windowDays)
	series := make([]DailyCount, windowDays)
	for i := range series {
		series[i] = DailyCount{Date: start.AddDate(0, 0, i).Format("2006-01-02")}
	}
	return series
}
