package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
)

// SensorService manages sensors and answers carry-forward lookups.
type SensorService interface {
	List(ctx context.Context) ([]*models.Sensor, error)
	Get(ctx context.Context, id int64) (*models.Sensor, error)
	GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error)
	// LastCalibration returns the page-4 coefficients of the sensor's most
	// recent completed report, or apperrors.ErrNotFound.
	LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error)
	Create(ctx context.Context, sensor *models.Sensor) (*models.Sensor, error)
	Update(ctx context.Context, id int64, sensor *models.Sensor) (*models.Sensor, error)
	Delete(ctx context.Context, id int64) error
}

type sensorService struct {
	repo       repositories.SensorRepository
	reportRepo repositories.ReportRepository
	logger     *zap.Logger
}

// NewSensorService creates a new sensor service.
func NewSensorService(
	repo repositories.SensorRepository,
	reportRepo repositories.ReportRepository,
	logger *zap.Logger,
) SensorService {
	return &sensorService{
		repo:       repo,
		reportRepo: reportRepo,
		logger:     logger.Named("sensors"),
	}
}

const msgSensorFieldsRequired = "Sensor name and serial number are required"

func (s *sensorService) List(ctx context.Context) ([]*models.Sensor, error) {
	return s.repo.List(ctx)
}

func (s *sensorService) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *sensorService) GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error) {
	return s.repo.GetBySerialNumber(ctx, serial)
}

func (s *sensorService) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	return s.reportRepo.LastCalibration(ctx, sensorID)
}

func (s *sensorService) Create(ctx context.Context, sensor *models.Sensor) (*models.Sensor, error) {
	if err := validateInput(sensor, msgSensorFieldsRequired); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sensor); err != nil {
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}
	s.logger.Info("Created sensor",
		zap.Int64("id", sensor.ID),
		zap.String("serial_number", sensor.SerialNumber))
	return sensor, nil
}

func (s *sensorService) Update(ctx context.Context, id int64, sensor *models.Sensor) (*models.Sensor, error) {
	if err := validateInput(sensor, msgSensorFieldsRequired); err != nil {
		return nil, err
	}
	sensor.ID = id
	if err := s.repo.Update(ctx, sensor); err != nil {
		return nil, fmt.Errorf("failed to update sensor: %w", err)
	}
	return sensor, nil
}

func (s *sensorService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	s.logger.Info("Deleted sensor", zap.Int64("id", id))
	return nil
}

var _ SensorService = (*sensorService)(nil)
