package services

import (
	"context"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

type mockPersonnelRepository struct {
	rows      map[int64]*models.Personnel
	nextID    int64
	createErr error
	updateErr error
	deleteErr error
}

func newMockPersonnelRepository() *mockPersonnelRepository {
	return &mockPersonnelRepository{rows: make(map[int64]*models.Personnel), nextID: 1}
}

func (m *mockPersonnelRepository) List(ctx context.Context) ([]*models.Personnel, error) {
	out := make([]*models.Personnel, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPersonnelRepository) GetByID(ctx context.Context, id int64) (*models.Personnel, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockPersonnelRepository) Create(ctx context.Context, p *models.Personnel) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = m.nextID
	m.nextID++
	m.rows[p.ID] = p
	return nil
}

func (m *mockPersonnelRepository) Update(ctx context.Context, p *models.Personnel) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.rows[p.ID] = p
	return nil
}

func (m *mockPersonnelRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type mockSensorRepository struct {
	rows      map[int64]*models.Sensor
	nextID    int64
	createErr error
}

func newMockSensorRepository() *mockSensorRepository {
	return &mockSensorRepository{rows: make(map[int64]*models.Sensor), nextID: 1}
}

func (m *mockSensorRepository) List(ctx context.Context) ([]*models.Sensor, error) {
	out := make([]*models.Sensor, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSensorRepository) GetByID(ctx context.Context, id int64) (*models.Sensor, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (m *mockSensorRepository) GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error) {
	for _, s := range m.rows {
		if s.SerialNumber == serial {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSensorRepository) Create(ctx context.Context, s *models.Sensor) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.rows {
		if existing.SerialNumber == s.SerialNumber {
			return apperrors.ErrConflict
		}
	}
	s.ID = m.nextID
	m.nextID++
	m.rows[s.ID] = s
	return nil
}

func (m *mockSensorRepository) Update(ctx context.Context, s *models.Sensor) error {
	if _, ok := m.rows[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.rows[s.ID] = s
	return nil
}

func (m *mockSensorRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type mockEquipmentRepository struct {
	rows        map[int64]*models.Equipment
	nextID      int64
	getByIDsErr error
	batchCalls  int
}

func newMockEquipmentRepository() *mockEquipmentRepository {
	return &mockEquipmentRepository{rows: make(map[int64]*models.Equipment), nextID: 1}
}

func (m *mockEquipmentRepository) List(ctx context.Context) ([]*models.Equipment, error) {
	out := make([]*models.Equipment, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEquipmentRepository) GetByID(ctx context.Context, id int64) (*models.Equipment, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return e, nil
}

func (m *mockEquipmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Equipment, error) {
	m.batchCalls++
	if m.getByIDsErr != nil {
		return nil, m.getByIDsErr
	}
	out := []*models.Equipment{}
	for _, id := range ids {
		if e, ok := m.rows[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEquipmentRepository) Create(ctx context.Context, e *models.Equipment) error {
	e.ID = m.nextID
	m.nextID++
	m.rows[e.ID] = e
	return nil
}

func (m *mockEquipmentRepository) Update(ctx context.Context, e *models.Equipment) error {
	if _, ok := m.rows[e.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.rows[e.ID] = e
	return nil
}

func (m *mockEquipmentRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// mockReportRepository stores reports by value so callers cannot mutate
// stored state through the pointers they passed in.
type mockReportRepository struct {
	reports   map[int64]models.Report
	nextID    int64
	last      map[int64]*models.LastCalibration
	createErr error
	updateErr error
	created   []*models.Report
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{
		reports: make(map[int64]models.Report),
		last:    make(map[int64]*models.LastCalibration),
		nextID:  1,
	}
}

func (m *mockReportRepository) List(ctx context.Context) ([]*models.ReportSummary, error) {
	out := make([]*models.ReportSummary, 0, len(m.reports))
	for id, r := range m.reports {
		out = append(out, &models.ReportSummary{ID: id, ReportNumber: r.ReportNumber, Status: r.Status})
	}
	return out, nil
}

func (m *mockReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (m *mockReportRepository) Create(ctx context.Context, report *models.Report) error {
	m.created = append(m.created, report)
	if m.createErr != nil {
		return m.createErr
	}
	report.ID = m.nextID
	m.nextID++
	m.reports[report.ID] = *report
	return nil
}

func (m *mockReportRepository) Update(ctx context.Context, report *models.Report) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.reports[report.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.reports[report.ID] = *report
	return nil
}

func (m *mockReportRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.reports[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepository) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	l, ok := m.last[sensorID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return l, nil
}
