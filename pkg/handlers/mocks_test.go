package handlers

import (
	"context"
	"net/http"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

// passthrough stands in for database.WithConnection in route tests.
func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

type mockPersonnelService struct {
	people []*models.Personnel
	person *models.Personnel
	err    error
}

func (m *mockPersonnelService) List(ctx context.Context) ([]*models.Personnel, error) {
	return m.people, m.err
}

func (m *mockPersonnelService) Get(ctx context.Context, id int64) (*models.Personnel, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.person, nil
}

func (m *mockPersonnelService) Create(ctx context.Context, p *models.Personnel) (*models.Personnel, error) {
	if m.err != nil {
		return nil, m.err
	}
	p.ID = 1
	return p, nil
}

func (m *mockPersonnelService) Update(ctx context.Context, id int64, p *models.Personnel) (*models.Personnel, error) {
	if m.err != nil {
		return nil, m.err
	}
	p.ID = id
	return p, nil
}

func (m *mockPersonnelService) Delete(ctx context.Context, id int64) error {
	return m.err
}

var _ services.PersonnelService = (*mockPersonnelService)(nil)

type mockSensorService struct {
	sensor    *models.Sensor
	last      *models.LastCalibration
	err       error
	lastErr   error
	gotSerial string
	gotID     int64
}

func (m *mockSensorService) List(ctx context.Context) ([]*models.Sensor, error) {
	return nil, m.err
}

func (m *mockSensorService) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.sensor, nil
}

func (m *mockSensorService) GetBySerialNumber(ctx context.Context, serial string) (*models.Sensor, error) {
	m.gotSerial = serial
	if m.err != nil {
		return nil, m.err
	}
	return m.sensor, nil
}

func (m *mockSensorService) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	m.gotID = sensorID
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.last, nil
}

func (m *mockSensorService) Create(ctx context.Context, s *models.Sensor) (*models.Sensor, error) {
	if m.err != nil {
		return nil, m.err
	}
	s.ID = 1
	return s, nil
}

func (m *mockSensorService) Update(ctx context.Context, id int64, s *models.Sensor) (*models.Sensor, error) {
	if m.err != nil {
		return nil, m.err
	}
	s.ID = id
	return s, nil
}

func (m *mockSensorService) Delete(ctx context.Context, id int64) error {
	return m.err
}

var _ services.SensorService = (*mockSensorService)(nil)

type mockEquipmentService struct {
	items    []*models.Equipment
	err      error
	batchReq *models.EquipmentBatchRequest
}

func (m *mockEquipmentService) List(ctx context.Context) ([]*models.Equipment, error) {
	return m.items, m.err
}

func (m *mockEquipmentService) Get(ctx context.Context, id int64) (*models.Equipment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Equipment{ID: id, Instrument: "Bath"}, nil
}

func (m *mockEquipmentService) Batch(ctx context.Context, req *models.EquipmentBatchRequest) ([]*models.Equipment, error) {
	m.batchReq = req
	return m.items, m.err
}

func (m *mockEquipmentService) Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	if m.err != nil {
		return nil, m.err
	}
	e.ID = 1
	return e, nil
}

func (m *mockEquipmentService) Update(ctx context.Context, id int64, e *models.Equipment) (*models.Equipment, error) {
	if m.err != nil {
		return nil, m.err
	}
	e.ID = id
	return e, nil
}

func (m *mockEquipmentService) Delete(ctx context.Context, id int64) error {
	return m.err
}

var _ services.EquipmentService = (*mockEquipmentService)(nil)

type mockReportService struct {
	report    *models.Report
	summaries []*models.ReportSummary
	err       error
	received  *models.Report
}

func (m *mockReportService) List(ctx context.Context) ([]*models.ReportSummary, error) {
	return m.summaries, m.err
}

func (m *mockReportService) Get(ctx context.Context, id int64) (*models.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockReportService) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	m.received = report
	if m.err != nil {
		return nil, m.err
	}
	report.ID = 1
	return report, nil
}

func (m *mockReportService) Update(ctx context.Context, id int64, report *models.Report) (*models.Report, error) {
	m.received = report
	if m.err != nil {
		return nil, m.err
	}
	report.ID = id
	return report, nil
}

func (m *mockReportService) Delete(ctx context.Context, id int64) error {
	return m.err
}

var _ services.ReportService = (*mockReportService)(nil)
