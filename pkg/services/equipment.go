package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
)

// EquipmentService manages test equipment.
type EquipmentService interface {
	List(ctx context.Context) ([]*models.Equipment, error)
	Get(ctx context.Context, id int64) (*models.Equipment, error)
	Batch(ctx context.Context, req *models.EquipmentBatchRequest) ([]*models.Equipment, error)
	Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error)
	Update(ctx context.Context, id int64, e *models.Equipment) (*models.Equipment, error)
	Delete(ctx context.Context, id int64) error
}

type equipmentService struct {
	repo   repositories.EquipmentRepository
	logger *zap.Logger
}

// NewEquipmentService creates a new equipment service.
func NewEquipmentService(repo repositories.EquipmentRepository, logger *zap.Logger) EquipmentService {
	return &equipmentService{
		repo:   repo,
		logger: logger.Named("equipment"),
	}
}

const (
	msgInstrumentRequired = "Instrument name is required"
	msgIDsRequired        = "IDs array is required"
)

func (s *equipmentService) List(ctx context.Context) ([]*models.Equipment, error) {
	return s.repo.List(ctx)
}

func (s *equipmentService) Get(ctx context.Context, id int64) (*models.Equipment, error) {
	return s.repo.GetByID(ctx, id)
}

// Batch returns the equipment rows for the requested ids in request order.
func (s *equipmentService) Batch(ctx context.Context, req *models.EquipmentBatchRequest) ([]*models.Equipment, error) {
	if err := validateInput(req, msgIDsRequired); err != nil {
		return nil, err
	}
	return s.repo.GetByIDs(ctx, req.IDs)
}

func (s *equipmentService) Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	if err := validateInput(e, msgInstrumentRequired); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}
	s.logger.Info("Created equipment", zap.Int64("id", e.ID))
	return e, nil
}

func (s *equipmentService) Update(ctx context.Context, id int64, e *models.Equipment) (*models.Equipment, error) {
	if err := validateInput(e, msgInstrumentRequired); err != nil {
		return nil, err
	}
	e.ID = id
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update equipment: %w", err)
	}
	return e, nil
}

func (s *equipmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	s.logger.Info("Deleted equipment", zap.Int64("id", id))
	return nil
}

var _ EquipmentService = (*equipmentService)(nil)
