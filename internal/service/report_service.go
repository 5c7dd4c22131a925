package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/repository"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
	"github.com/noah-isme/maintenance-api/pkg/export"
)

// ReportKind names one of the aggregate reports.
type ReportKind string

const (
	ReportByTeam     ReportKind = "by-team"
	ReportByCategory ReportKind = "by-category"
)

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ReportService produces the read-side aggregates. Results are cached until
// the next request mutation.
type ReportService struct {
	requests repository.RequestStore
	teams    repository.TeamStore
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs a ReportService. cache may be nil.
func NewReportService(store *repository.Store, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{requests: store.Requests, teams: store.Teams, cache: cache, logger: logger, now: time.Now}
}

// ByTeam counts non-scrapped requests per team, largest first. Groups whose
// team no longer resolves are dropped.
func (s *ReportService) ByTeam(ctx context.Context) ([]models.TeamReportRow, error) {
	return Remember(ctx, s.cache, reportKeyByTeam, s.loadByTeam)
}

func (s *ReportService) loadByTeam(ctx context.Context) ([]models.TeamReportRow, error) {
	groups, err := s.requests.CountBy(ctx, models.GroupByTeam)
	if err != nil {
		return nil, storeErr(err, "request")
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.Key)
	}
	teams, err := s.teams.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "team")
	}
	byID := make(map[string]models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	rows := make([]models.TeamReportRow, 0, len(groups))
	for _, g := range groups {
		team, ok := byID[g.Key]
		if !ok {
			continue
		}
		rows = append(rows, models.TeamReportRow{
			TeamID:         team.ID,
			TeamName:       team.Name,
			Specialization: team.Specialization,
			Count:          g.Count,
			OpenCount:      g.OpenCount,
		})
	}
	return rows, nil
}

// ByCategory counts non-scrapped requests per equipment category snapshot.
func (s *ReportService) ByCategory(ctx context.Context) ([]models.CategoryReportRow, error) {
	return Remember(ctx, s.cache, reportKeyByCategory, func(ctx context.Context) ([]models.CategoryReportRow, error) {
		groups, err := s.requests.CountBy(ctx, models.GroupByCategory)
		if err != nil {
			return nil, storeErr(err, "request")
		}
		rows := make([]models.CategoryReportRow, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, models.CategoryReportRow{
				Category:  models.EquipmentCategory(g.Key),
				Count:     g.Count,
				OpenCount: g.OpenCount,
			})
		}
		return rows, nil
	})
}

// Export renders a report as csv, xlsx or pdf.
func (s *ReportService) Export(ctx context.Context, kind ReportKind, format string) (*ExportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err.Error())
	}

	var dataset export.Dataset
	switch kind {
	case ReportByTeam:
		rows, err := s.ByTeam(ctx)
		if err != nil {
			return nil, err
		}
		dataset = teamDataset(rows)
	case ReportByCategory:
		rows, err := s.ByCategory(ctx)
		if err != nil {
			return nil, err
		}
		dataset = categoryDataset(rows)
	default:
		return nil, appErrors.Validation(fmt.Sprintf("unknown report %q", kind))
	}

	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	s.logger.Debug("report exported", zap.String("report", string(kind)), zap.String("format", renderer.Extension()), zap.Int("bytes", len(data)))
	return &ExportFile{
		FileName:    fmt.Sprintf("requests-%s-%s.%s", kind, s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func teamDataset(rows []models.TeamReportRow) export.Dataset {
	ds := export.Dataset{
		Title:   "Maintenance requests by team",
		Headers: []string{"Team", "Specialization", "Requests", "Open"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, map[string]string{
			"Team":           string(r.TeamName),
			"Specialization": string(r.Specialization),
			"Requests":       strconv.Itoa(r.Count),
			"Open":           strconv.Itoa(r.OpenCount),
		})
	}
	return ds
}

func categoryDataset(rows []models.CategoryReportRow) export.Dataset {
	ds := export.Dataset{
		Title:   "Maintenance requests by equipment category",
		Headers: []string{"Category", "Requests", "Open"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, map[string]string{
			"Category": string(r.Category),
			"Requests": strconv.Itoa(r.Count),
			"Open":     strconv.Itoa(r.OpenCount),
		})
	}
	return ds
}
