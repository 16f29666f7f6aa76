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

// PersonnelRepository defines the interface for personnel data access.
type PersonnelRepository interface {
	List(ctx context.Context) ([]*models.Personnel, error)
	GetByID(ctx context.Context, id int64) (*models.Personnel, error)
	Create(ctx context.Context, p *models.Personnel) error
	Update(ctx context.Context, p *models.Personnel) error
	Delete(ctx context.Context, id int64) error
}

type personnelRepository struct{}

// NewPersonnelRepository creates a new personnel repository.
func NewPersonnelRepository() PersonnelRepository {
	return &personnelRepository{}
}

const personnelColumns = `id, name, COALESCE(role, ''), COALESCE(email, ''), COALESCE(lab_unit, ''), created_at`

func scanPersonnel(row pgx.Row) (*models.Personnel, error) {
	var p models.Personnel
	if err := row.Scan(&p.ID, &p.Name, &p.Role, &p.Email, &p.LabUnit, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all personnel ordered by name.
func (r *personnelRepository) List(ctx context.Context) ([]*models.Personnel, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	rows, err := scope.Conn.Query(ctx, `SELECT `+personnelColumns+` FROM personnel ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}
	defer rows.Close()

	people := make([]*models.Personnel, 0)
	for rows.Next() {
		p, err := scanPersonnel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personnel: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate personnel: %w", err)
	}

	return people, nil
}

// GetByID retrieves a person by ID.
func (r *personnelRepository) GetByID(ctx context.Context, id int64) (*models.Personnel, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	p, err := scanPersonnel(scope.Conn.QueryRow(ctx, `SELECT `+personnelColumns+` FROM personnel WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get personnel: %w", err)
	}
	return p, nil
}

// Create inserts a person and fills in ID and CreatedAt.
func (r *personnelRepository) Create(ctx context.Context, p *models.Personnel) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		INSERT INTO personnel (name, role, email, lab_unit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query, p.Name, p.Role, p.Email, p.LabUnit).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create personnel: %w", err)
	}
	return nil
}

// Update overwrites every editable field of a person.
func (r *personnelRepository) Update(ctx context.Context, p *models.Personnel) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	query := `
		UPDATE personnel
		SET name = $2, role = $3, email = $4, lab_unit = $5
		WHERE id = $1
		RETURNING created_at`

	err := scope.Conn.QueryRow(ctx, query, p.ID, p.Name, p.Role, p.Email, p.LabUnit).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update personnel: %w", err)
	}
	return nil
}

// Delete removes a person. Reports keep author names as text, so nothing cascades.
func (r *personnelRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM personnel WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete personnel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure personnelRepository implements PersonnelRepository at compile time.
var _ PersonnelRepository = (*personnelRepository)(nil)
