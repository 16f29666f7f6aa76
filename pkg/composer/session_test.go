package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/calibration-portal/pkg/apiclient"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

func newTestSession(t *testing.T, client *fakeClient) *Session {
	t.Helper()
	s := NewSession(client, zaptest.NewLogger(t), testDay)
	t.Cleanup(s.Close)
	return s
}

func TestSession_LoadMasterData(t *testing.T) {
	client := newFakeClient()
	client.sensors = []*models.Sensor{{ID: 1, SensorName: "CTD", SerialNumber: "SN-1"}}
	client.equipment = []*models.Equipment{{ID: 1, Instrument: "Bath"}, {ID: 2, Instrument: "Bridge"}}
	client.personnel = []*models.Personnel{{ID: 1, Name: "Ada"}}
	s := newTestSession(t, client)

	require.NoError(t, s.LoadMasterData(context.Background()))
	assert.Len(t, s.Sensors(), 1)
	assert.Len(t, s.Personnel(), 1)

	eq, ok := s.Equipment(2)
	require.True(t, ok)
	s.Apply(func(st State) State { return st.AddEquipment(eq, "") })
	assert.Equal(t, []*models.Equipment{client.equipment[0]}, s.SelectableEquipment())
}

func TestSession_LoadMasterData_Failure(t *testing.T) {
	client := newFakeClient()
	client.listErr = errBoom
	s := newTestSession(t, client)

	assert.Error(t, s.LoadMasterData(context.Background()))
	assert.Equal(t, MsgMasterDataFailed, s.Error())
	assert.Equal(t, PageSensor, s.State().Page(), "the session keeps going")
}

func TestSession_SelectSensor_CarriesForward(t *testing.T) {
	client := newFakeClient()
	client.last[7] = &models.LastCalibration{G: "1", H: "2", I: "3", J: "4", CPcor: "5", CTcor: "6"}
	s := newTestSession(t, client)

	s.SelectSensor(context.Background(), 7)
	s.Wait()

	assert.Equal(t, models.CoefficientSet{G: "1", H: "2", I: "3", J: "4", CPcor: "5", CTcor: "6"},
		s.State().Report().AsReceived.Coefficients)
	assert.Empty(t, s.Error())
}

func TestSession_SelectSensor_NoPriorCalibration(t *testing.T) {
	s := newTestSession(t, newFakeClient())

	s.SelectSensor(context.Background(), 7)
	s.Wait()

	assert.True(t, s.State().Report().AsReceived.Coefficients.IsZero())
	assert.Empty(t, s.Error(), "a missing calibration is not surfaced")
}

func TestSession_SelectSensor_SkipsWhenGEntered(t *testing.T) {
	client := newFakeClient()
	client.last[7] = &models.LastCalibration{G: "1"}
	s := newTestSession(t, client)

	require.NoError(t, s.ApplyErr(func(st State) (State, error) { return st.Set("page3_as_received_g", "5") }))
	s.SelectSensor(context.Background(), 7)
	s.Wait()

	assert.Equal(t, "5", s.State().Report().AsReceived.Coefficients.G)
	assert.Equal(t, 0, client.lookups)
}

func TestSession_SelectSensor_LateResponseDiscarded(t *testing.T) {
	client := newFakeClient()
	client.last[7] = &models.LastCalibration{G: "seven"}
	client.last[8] = &models.LastCalibration{G: "eight"}
	gate := client.gate(7)
	s := newTestSession(t, client)

	s.SelectSensor(context.Background(), 7)
	s.SelectSensor(context.Background(), 8)
	close(gate)
	s.Wait()

	assert.Equal(t, "eight", s.State().Report().AsReceived.Coefficients.G)
}

func TestSession_ClearSensor_DiscardsLookup(t *testing.T) {
	client := newFakeClient()
	client.last[7] = &models.LastCalibration{G: "seven"}
	gate := client.gate(7)
	s := newTestSession(t, client)

	s.SelectSensor(context.Background(), 7)
	s.ClearSensor()
	close(gate)
	s.Wait()

	r := s.State().Report()
	assert.Nil(t, r.SensorID)
	assert.True(t, r.AsReceived.Coefficients.IsZero())
}

func TestSession_SaveDraftThenUpdate(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client)

	saved, err := s.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, models.ReportStatusDraft, saved.Status)
	assert.Equal(t, MsgReportCreated, s.Success())

	s.Apply(State.Next)
	_, err = s.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.creates)
	assert.Equal(t, 1, client.updates)
	assert.Equal(t, MsgReportUpdated, s.Success())
	assert.Equal(t, PageEquipment, s.State().Page())
}

func TestSession_Complete(t *testing.T) {
	client := newFakeClient()
	s := newTestSession(t, client)

	_, err := s.Complete(context.Background())
	assert.ErrorIs(t, err, ErrNotOnFinalPage)
	assert.NotEmpty(t, s.Error())
	assert.Equal(t, 0, client.creates)

	s.Apply(func(st State) State { return st.Next().Next().Next().AnswerCalibrationPrompt(true).Next() })
	saved, err := s.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, saved.Status)
	assert.Empty(t, s.Error())
}

func TestSession_SaveFailureShowsServerMessage(t *testing.T) {
	client := newFakeClient()
	client.createErr = &apiclient.Error{StatusCode: 500, Message: "Failed to create report", Details: "bad date"}
	s := newTestSession(t, client)

	_, err := s.SaveDraft(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to create report", s.Error())
	assert.Empty(t, s.Success())

	client.createErr = errBoom
	_, err = s.SaveDraft(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgSaveFailed, s.Error())

	client.createErr = nil
	_, err = s.SaveDraft(context.Background())
	require.NoError(t, err, "the same action can be retried")
	assert.Empty(t, s.Error())
}

func TestSession_Open(t *testing.T) {
	client := newFakeClient()
	client.reports[5] = &models.Report{ID: 5, ReportNumber: "CR-5", Status: models.ReportStatusCompleted}
	s := newTestSession(t, client)

	require.NoError(t, s.Open(context.Background(), 5))
	assert.Equal(t, int64(5), s.State().ReportID())
	assert.Equal(t, "CR-5", s.State().Report().ReportNumber)

	_, err := s.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.updates)
	assert.Equal(t, models.ReportStatusDraft, client.reports[5].Status)
}

func TestSession_Open_Failure(t *testing.T) {
	s := newTestSession(t, newFakeClient())

	assert.Error(t, s.Open(context.Background(), 99))
	assert.Equal(t, MsgReportLoadFailed, s.Error())
	assert.Equal(t, int64(0), s.State().ReportID())
}

func TestSession_ApplyErr(t *testing.T) {
	s := newTestSession(t, newFakeClient())

	err := s.ApplyErr(func(st State) (State, error) { return st.Set("bogus", "x") })
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, s.Error(), "unknown report field")

	s.ClearMessages()
	assert.Empty(t, s.Error())
}
