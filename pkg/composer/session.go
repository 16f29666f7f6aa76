package composer

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/calibration-portal/pkg/apiclient"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// Client is the part of the portal API a wizard session uses.
// *apiclient.Client satisfies it.
type Client interface {
	CalibrationLookup
	ListSensors(ctx context.Context) ([]*models.Sensor, error)
	ListEquipment(ctx context.Context) ([]*models.Equipment, error)
	ListPersonnel(ctx context.Context) ([]*models.Personnel, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	CreateReport(ctx context.Context, report *models.Report) (*models.Report, error)
	UpdateReport(ctx context.Context, id int64, report *models.Report) (*models.Report, error)
}

var _ Client = (*apiclient.Client)(nil)

// Banner texts shown to the user.
const (
	MsgMasterDataFailed = "Failed to fetch master data"
	MsgReportLoadFailed = "Failed to fetch report"
	MsgSaveFailed       = "Failed to save report"
	MsgReportCreated    = "Report created successfully!"
	MsgReportUpdated    = "Report updated successfully!"
)

// Session drives one wizard run against the API. It owns the current
// State and applies transitions to it. Failures never end the session:
// they are recorded in the error banner and the action may be retried.
//
// A Session is safe for concurrent use.
type Session struct {
	client Client
	carry  *CarryForward
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	sensors   []*models.Sensor
	equipment []*models.Equipment
	personnel []*models.Personnel
	errMsg    string
	okMsg     string

	pending sync.WaitGroup
}

// NewSession starts a session on a blank report dated today.
func NewSession(client Client, logger *zap.Logger, today time.Time) *Session {
	logger = logger.Named("composer")
	return &Session{
		client: client,
		carry:  NewCarryForward(client, logger),
		logger: logger,
		state:  New(today),
	}
}

// LoadMasterData fetches sensors, equipment and personnel in parallel.
func (s *Session) LoadMasterData(ctx context.Context) error {
	var (
		sensors   []*models.Sensor
		equipment []*models.Equipment
		personnel []*models.Personnel
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sensors, err = s.client.ListSensors(gctx)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = s.client.ListEquipment(gctx)
		return err
	})
	g.Go(func() (err error) {
		personnel, err = s.client.ListPersonnel(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.fail(MsgMasterDataFailed, err)
		return err
	}

	s.mu.Lock()
	s.sensors, s.equipment, s.personnel = sensors, equipment, personnel
	s.mu.Unlock()
	return nil
}

// Open loads a stored report for editing. Later saves replace it.
func (s *Session) Open(ctx context.Context, id int64) error {
	report, err := s.client.GetReport(ctx, id)
	if err != nil {
		s.fail(MsgReportLoadFailed, err)
		return err
	}

	s.carry.Cancel()
	s.mu.Lock()
	s.state = Edit(report)
	s.mu.Unlock()
	return nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply runs a transition on the current state.
func (s *Session) Apply(transition func(State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = transition(s.state)
}

// ApplyErr runs a transition that may fail. On failure the state is kept
// and the error is shown in the banner.
func (s *Session) ApplyErr(transition func(State) (State, error)) error {
	s.mu.Lock()
	next, err := transition(s.state)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err != nil {
		s.fail(err.Error(), err)
	}
	return err
}

// SelectSensor selects the sensor under test and, when the as-received
// coefficients are still blank, pre-fills them from the sensor's last
// completed calibration in the background. A sensor without one leaves
// the fields blank and raises no error.
func (s *Session) SelectSensor(ctx context.Context, sensorID int64) {
	s.mu.Lock()
	s.state = s.state.SelectSensor(sensorID)
	needed := s.state.NeedsCarryForward()
	s.mu.Unlock()

	if !needed {
		s.carry.Cancel()
		return
	}

	results := s.carry.Start(ctx, sensorID)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		res, ok := <-results
		if !ok || res.Last == nil {
			return
		}
		s.Apply(func(st State) State {
			return st.ApplyCarryForward(res.SensorID, res.Last)
		})
	}()
}

// ClearSensor deselects the sensor and abandons any lookup for it.
func (s *Session) ClearSensor() {
	s.carry.Cancel()
	s.Apply(State.ClearSensor)
}

// Wait blocks until background lookups have been applied or discarded.
func (s *Session) Wait() {
	s.pending.Wait()
}

// SaveDraft saves the report with status draft.
func (s *Session) SaveDraft(ctx context.Context) (*models.Report, error) {
	return s.save(ctx, s.State().SaveDraft())
}

// Complete saves the report with status completed. Only allowed from the
// conclusions page.
func (s *Session) Complete(ctx context.Context) (*models.Report, error) {
	sub, err := s.State().Complete()
	if err != nil {
		s.fail(err.Error(), err)
		return nil, err
	}
	return s.save(ctx, sub)
}

func (s *Session) save(ctx context.Context, sub Submission) (*models.Report, error) {
	s.mu.Lock()
	s.errMsg, s.okMsg = "", ""
	s.mu.Unlock()

	var (
		saved *models.Report
		err   error
		msg   string
	)
	if sub.IsUpdate() {
		saved, err = s.client.UpdateReport(ctx, sub.ReportID, &sub.Report)
		msg = MsgReportUpdated
	} else {
		saved, err = s.client.CreateReport(ctx, &sub.Report)
		msg = MsgReportCreated
	}
	if err != nil {
		banner := MsgSaveFailed
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			banner = apiErr.Message
		}
		s.fail(banner, err)
		return nil, err
	}

	s.logger.Info("Saved report",
		zap.Int64("id", saved.ID),
		zap.String("status", string(saved.Status)))

	s.mu.Lock()
	s.state = s.state.Saved(saved)
	s.okMsg = msg
	s.mu.Unlock()
	return saved, nil
}

// Sensors returns the loaded sensors.
func (s *Session) Sensors() []*models.Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sensors)
}

// Personnel returns the loaded personnel.
func (s *Session) Personnel() []*models.Personnel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.personnel)
}

// SelectableEquipment returns the loaded equipment not yet on the report.
func (s *Session) SelectableEquipment() []*models.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SelectableEquipment(s.equipment)
}

// Equipment returns the loaded equipment item with id.
func (s *Session) Equipment(id int64) (*models.Equipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.equipment {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Error is the current error banner, or "".
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Success is the current success banner, or "".
func (s *Session) Success() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.okMsg
}

// ClearMessages dismisses both banners.
func (s *Session) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg, s.okMsg = "", ""
}

// Close abandons background work and waits for it to drain.
func (s *Session) Close() {
	s.carry.Cancel()
	s.pending.Wait()
}

func (s *Session) fail(banner string, err error) {
	s.logger.Warn(banner, zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = banner
	s.okMsg = ""
}
