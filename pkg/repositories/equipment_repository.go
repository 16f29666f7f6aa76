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

// EquipmentRepository defines the interface for test equipment data access.
type EquipmentRepository interface {
	List(ctx context.Context) ([]*models.Equipment, error)
	GetByID(ctx context.Context, id int64) (*models.Equipment, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Equipment, error)
	Create(ctx context.Context, e *models.Equipment) error
	Update(ctx context.Context, e *models.Equipment) error
	Delete(ctx context.Context, id int64) error
}

type equipmentRepository struct{}

// NewEquipmentRepository creates a new equipment repository.
func NewEquipmentRepository() EquipmentRepository {
	return &equipmentRepository{}
}

const equipmentColumns = `id, instrument, COALESCE(model, ''), COALESCE(serial_number, ''), COALESCE(notes, ''),
	COALESCE(equipment_type, ''), created_at`

func scanEquipment(row pgx.Row) (*models.Equipment, error) {
	var e models.Equipment
	err := row.Scan(&e.ID, &e.Instrument, &e.Model, &e.SerialNumber, &e.Notes, &e.EquipmentType, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEquipment(rows pgx.Rows) ([]*models.Equipment, error) {
	defer rows.Close()

	items := make([]*models.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate equipment: %w", err)
	}
	return items, nil
}

// List returns all equipment ordered by instrument name.
func (r *equipmentRepository) List(ctx context.Context) ([]*models.Equipment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	rows, err := scope.Conn.Query(ctx, `SELECT `+equipmentColumns+` FROM test_equipment ORDER BY instrument ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return collectEquipment(rows)
}

// GetByID retrieves a single piece of equipment.
func (r *equipmentRepository) GetByID(ctx context.Context, id int64) (*models.Equipment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	e, err := scanEquipment(scope.Conn.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM test_equipment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return e, nil
}

// GetByIDs returns the equipment rows that exist among ids, in request
// order. Unknown ids are skipped.
func (r *equipmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Equipment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}
	if len(ids) == 0 {
		return []*models.Equipment{}, nil
	}

	query := `
		SELECT ` + equipmentColumns + `
		FROM test_equipment
		WHERE id = ANY($1::bigint[])
		ORDER BY array_position($1::bigint[], id)`

	rows, err := scope.Conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment batch: %w", err)
	}
	return collectEquipment(rows)
}

// Create inserts a piece of equipment.
func (r *equipmentRepository) Create(ctx context.Context, e *models.Equipment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		INSERT INTO test_equipment (instrument, model, serial_number, notes, equipment_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		e.Instrument,
		e.Model,
		e.SerialNumber,
		e.Notes,
		e.EquipmentType,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

// Update overwrites every editable field. Snapshots already stored on
// reports are not touched.
func (r *equipmentRepository) Update(ctx context.Context, e *models.Equipment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		UPDATE test_equipment
		SET instrument = $2, model = $3, serial_number = $4, notes = $5, equipment_type = $6
		WHERE id = $1
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query,
		e.ID,
		e.Instrument,
		e.Model,
		e.SerialNumber,
		e.Notes,
		e.EquipmentType,
	).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	return nil
}

// Delete removes a piece of equipment.
func (r *equipmentRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM test_equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure equipmentRepository implements EquipmentRepository at compile time.
var _ EquipmentRepository = (*equipmentRepository)(nil)
