package rules

import (
	"sort"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// ReportOpenStatuses count as open in the aggregate reports.
var ReportOpenStatuses = []models.RequestStatus{models.StatusNew, models.StatusInProgress}

// PendingStatuses count towards an equipment's open maintenance badge.
var PendingStatuses = []models.RequestStatus{models.StatusNew, models.StatusInProgress, models.StatusOnHold}

// BoardStatuses are the kanban buckets, in display order. Scrap has none.
var BoardStatuses = []models.RequestStatus{models.StatusNew, models.StatusInProgress, models.StatusRepaired, models.StatusOnHold}

// IsOpen reports whether status counts as open in reports.
func IsOpen(status models.RequestStatus) bool {
	return status == models.StatusNew || status == models.StatusInProgress
}

// FoldCounts groups requests by key, skipping scrapped ones, and returns the
// buckets ordered by count descending. Ties keep first-seen order.
func FoldCounts(requests []models.MaintenanceRequest, key func(models.MaintenanceRequest) string) []models.GroupCount {
	index := make(map[string]int)
	groups := make([]models.GroupCount, 0)
	for _, req := range requests {
		if req.Status == models.StatusScrap {
			continue
		}
		k := key(req)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, models.GroupCount{Key: k})
		}
		groups[i].Count++
		if IsOpen(req.Status) {
			groups[i].OpenCount++
		}
	}
	SortGroupCounts(groups)
	return groups
}

// SortGroupCounts orders buckets by count descending, stable on ties.
func SortGroupCounts(groups []models.GroupCount) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
}

// ByTeam and ByCategory are the grouping keys of the two reports.
func ByTeam(req models.MaintenanceRequest) string { return req.MaintenanceTeamID }

func ByCategory(req models.MaintenanceRequest) string { return string(req.EquipmentCategory) }

// GroupForBoard buckets requests into the fixed kanban columns. Every column
// is present even when empty.
func GroupForBoard(requests []models.RequestDetail) models.Board {
	board := make(models.Board, len(BoardStatuses))
	for _, status := range BoardStatuses {
		board[status] = make([]models.RequestDetail, 0)
	}
	for _, req := range requests {
		if bucket, ok := board[req.Status]; ok {
			board[req.Status] = append(bucket, req)
		}
	}
	return board
}

// SortRequests orders a listing in place. Scheduled ordering puts undated
// requests last; otherwise newest first.
func SortRequests(items []models.MaintenanceRequest, order models.RequestSort) {
	if order == models.SortScheduledAsc {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].ScheduledDate, items[j].ScheduledDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
}
