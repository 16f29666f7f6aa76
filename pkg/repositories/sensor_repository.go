package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// SensorRepository defines the interface for sensor data access.
type SensorRepository interface {
	List(ctx context.Context) ([]*models.Sensor, error)
	GetByID(ctx context.Context, id int64) (*models.Sensor, error)
	GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error)
	Create(ctx context.Context, s *models.Sensor) error
	Update(ctx context.Context, s *models.Sensor) error
	Delete(ctx context.Context, id int64) error
}

type sensorRepository struct{}

// NewSensorRepository creates a new sensor repository.
func NewSensorRepository() SensorRepository {
	return &sensorRepository{}
}

const sensorColumns = `id, sensor_name, serial_number, COALESCE(property_of, ''), COALESCE(model, ''),
	COALESCE(sensor_type, ''), created_at`

func scanSensor(row pgx.Row) (*models.Sensor, error) {
	var s models.Sensor
	err := row.Scan(&s.ID, &s.SensorName, &s.SerialNumber, &s.PropertyOf, &s.Model, &s.SensorType, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all sensors ordered by name.
func (r *sensorRepository) List(ctx context.Context) ([]*models.Sensor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	rows, err := scope.Conn.Query(ctx, `SELECT `+sensorColumns+` FROM sensors ORDER BY sensor_name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	defer rows.Close()

	sensors := make([]*models.Sensor, 0)
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensors: %w", err)
	}

	return sensors, nil
}

// GetByID retrieves a sensor by ID.
func (r *sensorRepository) GetByID(ctx context.Context, id int64) (*models.Sensor, error) {
	return r.getOne(ctx, `SELECT `+sensorColumns+` FROM sensors WHERE id = $1`, id)
}

// GetBySerialNumber retrieves a sensor by its unique serial number.
func (r *sensorRepository) GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error) {
	return r.getOne(ctx, `SELECT `+sensorColumns+` FROM sensors WHERE serial_number = $1`, serial)
}

func (r *sensorRepository) getOne(ctx context.Context, query string, arg any) (*models.Sensor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	s, err := scanSensor(scope.Conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sensor: %w", err)
	}
	return s, nil
}

// Create inserts a sensor. A duplicate serial number returns apperrors.ErrConflict.
func (r *sensorRepository) Create(ctx context.Context, s *models.Sensor) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		INSERT INTO sensors (sensor_name, serial_number, property_of, model, sensor_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		s.SensorName,
		s.SerialNumber,
		s.PropertyOf,
		s.Model,
		s.SensorType,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create sensor: %w", err)
	}
	return nil
}

// Update overwrites every editable field of a sensor.
func (r *sensorRepository) Update(ctx context.Context, s *models.Sensor) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		UPDATE sensors
		SET sensor_name = $2, serial_number = $3, property_of = $4, model = $5, sensor_type = $6
		WHERE id = $1
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query,
		s.ID,
		s.SensorName,
		s.SerialNumber,
		s.PropertyOf,
		s.Model,
		s.SensorType,
	).Scan(&s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update sensor: %w", err)
	}
	return nil
}

// Delete removes a sensor. Reports that referenced it keep their data with
// sensor_id cleared by the foreign key.
func (r *sensorRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM sensors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure sensorRepository implements SensorRepository at compile time.
var _ SensorRepository = (*sensorRepository)(nil)
