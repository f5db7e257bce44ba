package models

import (
	"sort"
	"time"
)

// GroupBy selects the bucket used by balance history
type GroupBy string

const (
	GroupByMonth        GroupBy = "month"
	GroupByAcademicYear GroupBy = "academicYear"
)

// Valid reports whether g is a known grouping.
func (g GroupBy) Valid() bool {
	return g == GroupByMonth || g == GroupByAcademicYear
}

// HistoryBucket is the net points of one period.
type HistoryBucket struct {
	Bucket      string `json:"bucket"`
	TotalPoints int64  `json:"totalPoints"`
}

// BalanceSummary is the dashboard view of one faculty member.
type BalanceSummary struct {
	FacultyID    int64                 `json:"facultyId"`
	AcademicYear string                `json:"academicYear,omitempty"`
	Balance      int64                 `json:"balance"`
	StatusCounts map[EntryStatus]int64 `json:"statusCounts"`
}

// SumApproved returns the balance over entries: the points of entries that
// count toward a balance, optionally restricted to one academic year.
func SumApproved(entries []*CreditEntry, academicYear string) int64 {
	var total int64
	for _, e := range entries {
		if !e.Status.CountsTowardBalance() {
			continue
		}
		if academicYear != "" && e.AcademicYear != academicYear {
			continue
		}
		total += e.Points
	}
	return total
}

// BucketHistory groups balance entries by period in ascending bucket order.
// Month buckets use the UTC creation month formatted as YYYY-MM.
func BucketHistory(entries []*CreditEntry, groupBy GroupBy) []HistoryBucket {
	totals := make(map[string]int64)
	for _, e := range entries {
		if !e.Status.CountsTowardBalance() {
			continue
		}
		totals[bucketOf(e, groupBy)] += e.Points
	}

	buckets := make([]HistoryBucket, 0, len(totals))
	for bucket, points := range totals {
		buckets = append(buckets, HistoryBucket{Bucket: bucket, TotalPoints: points})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Bucket < buckets[j].Bucket })
	return buckets
}

func bucketOf(e *CreditEntry, groupBy GroupBy) string {
	if groupBy == GroupByAcademicYear {
		return e.AcademicYear
	}
	return MonthOf(e.CreatedAt)
}

// MonthOf formats t as a month bucket.
func MonthOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
