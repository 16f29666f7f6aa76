package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
)

// ReportService validates and persists calibration reports.
type ReportService interface {
	List(ctx context.Context) ([]*models.ReportSummary, error)
	Get(ctx context.Context, id int64) (*models.Report, error)
	// Create stores a new report and returns it as read back from the database.
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	// Update replaces report id wholesale and returns the stored aggregate.
	Update(ctx context.Context, id int64, report *models.Report) (*models.Report, error)
	Delete(ctx context.Context, id int64) error
}

type reportService struct {
	repo          repositories.ReportRepository
	equipmentRepo repositories.EquipmentRepository
	logger        *zap.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	repo repositories.ReportRepository,
	equipmentRepo repositories.EquipmentRepository,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		repo:          repo,
		equipmentRepo: equipmentRepo,
		logger:        logger.Named("reports"),
	}
}

func (s *reportService) List(ctx context.Context) ([]*models.ReportSummary, error) {
	return s.repo.List(ctx)
}

func (s *reportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *reportService) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	if err := s.prepare(ctx, report); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("Created report",
		zap.Int64("id", report.ID),
		zap.String("report_number", report.ReportNumber),
		zap.String("status", string(report.Status)),
		zap.Int("page3_rows", len(report.AsReceived.Measurements)),
		zap.Int("page4_rows", len(report.New.Measurements)))

	return s.repo.GetByID(ctx, report.ID)
}

func (s *reportService) Update(ctx context.Context, id int64, report *models.Report) (*models.Report, error) {
	report.ID = id
	if err := s.prepare(ctx, report); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("Updated report",
		zap.Int64("id", report.ID),
		zap.String("status", string(report.Status)))

	return s.repo.GetByID(ctx, report.ID)
}

func (s *reportService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted report", zap.Int64("id", id))
	return nil
}

// prepare applies defaults and checks the fields the database cannot.
// When a client sends equipment ids without snapshots, the snapshots are
// taken now so both lists stay index-aligned. An id with no equipment row
// is a validation error.
func (s *reportService) prepare(ctx context.Context, report *models.Report) error {
	if report.Status != "" && !report.Status.IsValid() {
		return apperrors.NewValidationError("status",
			fmt.Sprintf("Invalid status %q: must be draft or completed", report.Status))
	}

	if len(report.Equipment) == 0 && len(report.EquipmentIDs) > 0 {
		items, err := s.equipmentRepo.GetByIDs(ctx, report.EquipmentIDs)
		if err != nil {
			return fmt.Errorf("failed to snapshot equipment: %w", err)
		}
		byID := make(map[int64]*models.Equipment, len(items))
		for _, e := range items {
			byID[e.ID] = e
		}
		var missing []string
		report.Equipment = make([]models.EquipmentSnapshot, 0, len(report.EquipmentIDs))
		for _, id := range report.EquipmentIDs {
			e, ok := byID[id]
			if !ok {
				missing = append(missing, strconv.FormatInt(id, 10))
				continue
			}
			report.Equipment = append(report.Equipment, e.Snapshot())
		}
		if len(missing) > 0 {
			return apperrors.NewValidationError("equipment_ids",
				fmt.Sprintf("Unknown equipment ids: %s", strings.Join(missing, ", ")))
		}
	}

	report.Normalize()
	return nil
}

var _ ReportService = (*reportService)(nil)
