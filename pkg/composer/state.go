// Package composer assembles a calibration report across the five wizard
// pages before it is submitted as one aggregate.
//
// State is an immutable value: every transition returns a new State and
// leaves the receiver untouched, so callers may keep old values for undo or
// compare before and after.
//
// The package is client-side: it is meant to be embedded by a frontend or
// CLI that talks to the portal through pkg/apiclient. The server does not
// import it.
package composer

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// Page is a wizard page number.
type Page int

const (
	PageSensor          Page = 1
	PageEquipment       Page = 2
	PageAsReceived      Page = 3
	PageNewCoefficients Page = 4
	PageConclusions     Page = 5
)

var pageLabels = map[Page]string{
	PageSensor:          "Sensor Under Test",
	PageEquipment:       "Test Equipment",
	PageAsReceived:      "As Received Data",
	PageNewCoefficients: "New Coefficients",
	PageConclusions:     "Conclusions",
}

var (
	ErrUnknownField       = errors.New("unknown report field")
	ErrUnknownColumn      = errors.New("unknown measurement column")
	ErrRowOutOfRange      = errors.New("measurement row out of range")
	ErrNotMeasurementPage = errors.New("page has no measurement table")
	ErrNotOnFinalPage     = errors.New("a report can only be completed from the conclusions page")
)

// Step is one entry of the progress indicator.
type Step struct {
	Page    Page
	Label   string
	Skipped bool
}

// Summary holds the read-only counts shown on the conclusions page.
type Summary struct {
	EquipmentCount int
	AsReceivedRows int
	NewRows        int
}

// Submission is what a save sends to the API: a create when ReportID is 0,
// otherwise a full replace of that report.
type Submission struct {
	ReportID int64
	Report   models.Report
}

// IsUpdate reports whether the submission replaces a stored report.
func (s Submission) IsUpdate() bool {
	return s.ReportID != 0
}

// State is the wizard's accumulated report plus navigation state.
type State struct {
	report           models.Report
	reportID         int64
	page             Page
	promptOpen       bool
	needsCalibration bool
}

// New starts a blank report with the lab's default texts. today fills the
// report and page-3 test dates.
func New(today time.Time) State {
	date := today.UTC().Format("2006-01-02")
	sheet := func() models.CalibrationSheet {
		return models.CalibrationSheet{
			FormulaText:  DefaultFormulaText,
			AccuracyNote: DefaultAccuracyNote,
			TableLegend:  DefaultTableLegend,
			Measurements: []models.MeasurementRow{},
		}
	}

	r := models.Report{
		TestDate:                 date,
		LabUnit:                  DefaultLabUnit,
		Status:                   models.ReportStatusDraft,
		Authors:                  []string{},
		EquipmentIDs:             []int64{},
		Equipment:                []models.EquipmentSnapshot{},
		ConductivityTestingLevel: DefaultConductivityTestingLevel,
		Uncertainty:              DefaultUncertainty,
		AsReceived:               sheet(),
		New:                      sheet(),
		References:               DefaultReferences,
	}
	r.AsReceived.TestDate = date

	return State{report: r, page: PageSensor, needsCalibration: true}
}

// Edit starts the wizard on a stored report. Saves replace report.ID.
func Edit(report *models.Report) State {
	r := cloneReport(*report)
	r.Normalize()
	return State{report: r, reportID: report.ID, page: PageSensor, needsCalibration: true}
}

// Report returns a copy of the accumulated report.
func (s State) Report() models.Report {
	return cloneReport(s.report)
}

// ReportID is the stored report being edited, or 0 for a new report.
func (s State) ReportID() int64 {
	return s.reportID
}

// Page is the page currently shown.
func (s State) Page() Page {
	return s.page
}

// CalibrationPromptOpen reports whether the "new coefficients needed?"
// question is waiting for an answer.
func (s State) CalibrationPromptOpen() bool {
	return s.promptOpen
}

// NeedsCalibration is the last answer to the calibration prompt.
func (s State) NeedsCalibration() bool {
	return s.needsCalibration
}

// Steps returns the progress indicator. Page 4 is marked skipped after the
// prompt was answered "no".
func (s State) Steps() []Step {
	steps := make([]Step, 0, len(pageLabels))
	for p := PageSensor; p <= PageConclusions; p++ {
		steps = append(steps, Step{
			Page:    p,
			Label:   pageLabels[p],
			Skipped: p == PageNewCoefficients && !s.needsCalibration,
		})
	}
	return steps
}

// Next advances one page. Leaving page 3 opens the calibration prompt
// instead; navigation is frozen while the prompt is open.
func (s State) Next() State {
	if s.promptOpen || s.page >= PageConclusions {
		return s
	}
	next := s.clone()
	if s.page == PageAsReceived {
		next.promptOpen = true
		return next
	}
	next.page++
	return next
}

// Previous goes back one page.
func (s State) Previous() State {
	if s.promptOpen || s.page <= PageSensor {
		return s
	}
	next := s.clone()
	next.page--
	return next
}

// AnswerCalibrationPrompt resolves the prompt. Yes goes to page 4. No
// copies the page-3 coefficients and measurement rows verbatim into page 4
// and jumps to page 5.
func (s State) AnswerCalibrationPrompt(needsNew bool) State {
	if !s.promptOpen {
		return s
	}
	next := s.clone()
	next.promptOpen = false
	next.needsCalibration = needsNew
	if needsNew {
		next.page = PageNewCoefficients
		return next
	}
	next.report.New.Coefficients = next.report.AsReceived.Coefficients
	next.report.New.Measurements = slices.Clone(next.report.AsReceived.Measurements)
	next.page = PageConclusions
	return next
}

// Set assigns a text field by its JSON key, e.g. "report_number" or
// "page3_ambient_temp". Page-4 coefficients pass through
// NormalizeCoefficient.
func (s State) Set(field, value string) (State, error) {
	ref, ok := textFields[field]
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if ref.normalize {
		value = NormalizeCoefficient(value)
	}
	next := s.clone()
	*ref.ptr(&next.report) = value
	return next, nil
}

// Field returns a text field by its JSON key.
func (s State) Field(field string) (string, error) {
	ref, ok := textFields[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	r := s.report
	return *ref.ptr(&r), nil
}

// SelectSensor sets the sensor under test. Call NeedsCarryForward
// afterwards to decide whether to look up its last calibration.
func (s State) SelectSensor(id int64) State {
	next := s.clone()
	next.report.SensorID = &id
	next.report.Sensor = nil
	return next
}

// ClearSensor deselects the sensor.
func (s State) ClearSensor() State {
	next := s.clone()
	next.report.SensorID = nil
	next.report.Sensor = nil
	return next
}

// NeedsCarryForward reports whether the as-received coefficients should be
// pre-filled from the selected sensor's last calibration: a sensor is
// selected and the as-received g is still empty.
func (s State) NeedsCarryForward() bool {
	return s.report.SensorID != nil && s.report.AsReceived.Coefficients.G == ""
}

// ApplyCarryForward fills the as-received coefficients from last. It is a
// no-op when sensorID is no longer the selected sensor, when g was filled
// in the meantime, or when last is nil.
func (s State) ApplyCarryForward(sensorID int64, last *models.LastCalibration) State {
	if last == nil || s.report.SensorID == nil || *s.report.SensorID != sensorID {
		return s
	}
	if s.report.AsReceived.Coefficients.G != "" {
		return s
	}
	next := s.clone()
	next.report.AsReceived.Coefficients = last.Coefficients()
	return next
}

// ToggleAuthor removes name from the authors when present, else appends it.
func (s State) ToggleAuthor(name string) State {
	next := s.clone()
	if i := slices.Index(next.report.Authors, name); i >= 0 {
		next.report.Authors = slices.Delete(next.report.Authors, i, i+1)
	} else {
		next.report.Authors = append(next.report.Authors, name)
	}
	return next
}

// AddEquipment appends a snapshot of e with note, keeping equipment_ids
// aligned. Equipment already on the report is ignored.
func (s State) AddEquipment(e *models.Equipment, note string) State {
	if e == nil || s.hasEquipment(e.ID) {
		return s
	}
	snap := e.Snapshot()
	snap.Notes = note

	next := s.clone()
	next.report.Equipment = append(next.report.Equipment, snap)
	next.report.EquipmentIDs = append(next.report.EquipmentIDs, e.ID)
	return next
}

// RemoveEquipment drops the snapshot and id at index.
func (s State) RemoveEquipment(index int) State {
	if index < 0 || index >= len(s.report.Equipment) {
		return s
	}
	next := s.clone()
	next.report.Equipment = slices.Delete(next.report.Equipment, index, index+1)
	ids := make([]int64, len(next.report.Equipment))
	for i, e := range next.report.Equipment {
		ids[i] = e.ID
	}
	next.report.EquipmentIDs = ids
	return next
}

// SetEquipmentNote edits the per-report note of the snapshot at index.
func (s State) SetEquipmentNote(index int, note string) State {
	if index < 0 || index >= len(s.report.Equipment) {
		return s
	}
	next := s.clone()
	next.report.Equipment[index].Notes = note
	return next
}

// SelectableEquipment filters all down to the items not yet on the report.
func (s State) SelectableEquipment(all []*models.Equipment) []*models.Equipment {
	out := make([]*models.Equipment, 0, len(all))
	for _, e := range all {
		if !s.hasEquipment(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// AddRow appends a blank measurement row to page 3 or 4.
func (s State) AddRow(page Page) (State, error) {
	return s.withRows(page, func(rows []models.MeasurementRow) ([]models.MeasurementRow, error) {
		return append(rows, models.MeasurementRow{}), nil
	})
}

// RemoveRow deletes the measurement row at index.
func (s State) RemoveRow(page Page, index int) (State, error) {
	return s.withRows(page, func(rows []models.MeasurementRow) ([]models.MeasurementRow, error) {
		if index < 0 || index >= len(rows) {
			return nil, ErrRowOutOfRange
		}
		return slices.Delete(rows, index, index+1), nil
	})
}

// SetCell edits one cell of a measurement row.
func (s State) SetCell(page Page, index int, column, value string) (State, error) {
	return s.withRows(page, func(rows []models.MeasurementRow) ([]models.MeasurementRow, error) {
		if index < 0 || index >= len(rows) {
			return nil, ErrRowOutOfRange
		}
		cell := rows[index].Cell(column)
		if cell == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
		*cell = value
		return rows, nil
	})
}

// PasteRows replaces a page's measurement rows with ParseMeasurements(text).
// Blank text leaves the rows unchanged.
func (s State) PasteRows(page Page, text string) (State, error) {
	return s.withRows(page, func(rows []models.MeasurementRow) ([]models.MeasurementRow, error) {
		parsed := ParseMeasurements(text)
		if len(parsed) == 0 {
			return rows, nil
		}
		return parsed, nil
	})
}

// Rows returns a copy of a page's measurement rows.
func (s State) Rows(page Page) []models.MeasurementRow {
	r := s.report
	sheet := r.Sheet(int(page))
	if sheet == nil {
		return nil
	}
	return slices.Clone(sheet.Measurements)
}

// Summary computes the counts shown on the conclusions page.
func (s State) Summary() Summary {
	return Summary{
		EquipmentCount: len(s.report.EquipmentIDs),
		AsReceivedRows: len(s.report.AsReceived.Measurements),
		NewRows:        len(s.report.New.Measurements),
	}
}

// SaveDraft builds a submission with status draft. Allowed from any page.
func (s State) SaveDraft() Submission {
	return s.submission(models.ReportStatusDraft)
}

// Complete builds a submission with status completed. Only allowed from
// the conclusions page.
func (s State) Complete() (Submission, error) {
	if s.page != PageConclusions {
		return Submission{}, ErrNotOnFinalPage
	}
	return s.submission(models.ReportStatusCompleted), nil
}

// Saved adopts the report returned by the API after a save. Later saves
// update it instead of creating another report.
func (s State) Saved(report *models.Report) State {
	next := s.clone()
	next.report = cloneReport(*report)
	next.report.Normalize()
	next.reportID = report.ID
	return next
}

func (s State) submission(status models.ReportStatus) Submission {
	r := cloneReport(s.report)
	r.Status = status
	return Submission{ReportID: s.reportID, Report: r}
}

func (s State) hasEquipment(id int64) bool {
	for _, e := range s.report.Equipment {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s State) withRows(page Page, fn func([]models.MeasurementRow) ([]models.MeasurementRow, error)) (State, error) {
	if page != PageAsReceived && page != PageNewCoefficients {
		return s, fmt.Errorf("%w: %d", ErrNotMeasurementPage, page)
	}
	next := s.clone()
	sheet := next.report.Sheet(int(page))
	rows, err := fn(sheet.Measurements)
	if err != nil {
		return s, err
	}
	sheet.Measurements = rows
	return next, nil
}

func (s State) clone() State {
	s.report = cloneReport(s.report)
	return s
}

// cloneReport copies r so that no slice or pointer is shared with it.
func cloneReport(r models.Report) models.Report {
	if r.SensorID != nil {
		id := *r.SensorID
		r.SensorID = &id
	}
	if r.Sensor != nil {
		info := *r.Sensor
		r.Sensor = &info
	}
	r.Authors = slices.Clone(r.Authors)
	r.EquipmentIDs = slices.Clone(r.EquipmentIDs)
	r.Equipment = slices.Clone(r.Equipment)
	r.AsReceived.Measurements = slices.Clone(r.AsReceived.Measurements)
	r.New.Measurements = slices.Clone(r.New.Measurements)
	return r
}
