package composer

import (
	"context"
	"errors"
	"sync"

	"github.com/ekaya-inc/calibration-portal/pkg/apiclient"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// fakeClient is an in-memory Client. LastCalibration blocks on gates[sensorID]
// when one is registered, so tests can control response ordering.
type fakeClient struct {
	mu sync.Mutex

	sensors   []*models.Sensor
	equipment []*models.Equipment
	personnel []*models.Personnel
	reports   map[int64]*models.Report
	last      map[int64]*models.LastCalibration
	gates     map[int64]chan struct{}
	nextID    int64

	listErr   error
	lastErr   error
	createErr error
	getErr    error

	creates int
	updates int
	lookups int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		reports: make(map[int64]*models.Report),
		last:    make(map[int64]*models.LastCalibration),
		gates:   make(map[int64]chan struct{}),
		nextID:  1,
	}
}

func (f *fakeClient) gate(sensorID int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[sensorID] = ch
	return ch
}

func (f *fakeClient) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	f.mu.Lock()
	f.lookups++
	gate := f.gates[sensorID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastErr != nil {
		return nil, f.lastErr
	}
	last, ok := f.last[sensorID]
	if !ok {
		return nil, &apiclient.Error{StatusCode: 404, Message: "No previous calibration found"}
	}
	return last, nil
}

func (f *fakeClient) ListSensors(ctx context.Context) ([]*models.Sensor, error) {
	return f.sensors, f.listErr
}

func (f *fakeClient) ListEquipment(ctx context.Context) ([]*models.Equipment, error) {
	return f.equipment, nil
}

func (f *fakeClient) ListPersonnel(ctx context.Context) ([]*models.Personnel, error) {
	return f.personnel, nil
}

func (f *fakeClient) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, &apiclient.Error{StatusCode: 404, Message: "Report not found"}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeClient) CreateReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *report
	cp.ID = f.nextID
	f.nextID++
	f.reports[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeClient) UpdateReport(ctx context.Context, id int64, report *models.Report) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if _, ok := f.reports[id]; !ok {
		return nil, &apiclient.Error{StatusCode: 404, Message: "Report not found"}
	}
	cp := *report
	cp.ID = id
	f.reports[id] = &cp
	out := cp
	return &out, nil
}

var errBoom = errors.New("boom")
