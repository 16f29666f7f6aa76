package models

import (
	"strings"
	"time"
)

// ReportStatus is the lifecycle state of a calibration report.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusCompleted ReportStatus = "completed"
)

// IsValid reports whether s is a known status.
func (s ReportStatus) IsValid() bool {
	return s == ReportStatusDraft || s == ReportStatusCompleted
}

// Measurement table page numbers.
const (
	PageAsReceived = 3
	PageNew        = 4
)

// Report is the calibration report aggregate. Page 3 ("as received") and
// page 4 ("new") share the CalibrationSheet shape.
type Report struct {
	ID           int64
	ReportNumber string
	SensorID     *int64
	// Sensor is filled from the sensors table on read; nil when the report
	// has no sensor or the sensor was deleted.
	Sensor    *SensorInfo
	TestDate  string // YYYY-MM-DD or ""
	CreatedBy string
	Authors   []string
	LabUnit   string
	Status    ReportStatus

	// EquipmentIDs is index-aligned with Equipment at save time.
	EquipmentIDs             []int64
	Equipment                []EquipmentSnapshot
	ConductivityTestingLevel string
	Uncertainty              string

	AsReceived CalibrationSheet
	New        CalibrationSheet

	Conclusions    string
	References     string
	Page1Footnotes string
	Page2Footnotes string
	Page5Footnotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SensorInfo is the sensor data joined onto a report.
type SensorInfo struct {
	SensorName   string
	SerialNumber string
	PropertyOf   string
	Model        string
}

// EquipmentSnapshot is a copy of an equipment row taken when it was added
// to a report. It is never refreshed from the reference table.
type EquipmentSnapshot struct {
	ID           int64  `json:"id"`
	Instrument   string `json:"instrument"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	Notes        string `json:"notes"`
}

// CalibrationSheet holds one coefficient page of a report.
type CalibrationSheet struct {
	TestDate     string
	Ambient      AmbientConditions
	Coefficients CoefficientSet
	FormulaText  string
	AccuracyNote string
	TableLegend  string
	Footnotes    string
	Measurements []MeasurementRow
}

// AmbientConditions are the lab conditions recorded on a sheet.
type AmbientConditions struct {
	Temp                           string
	TempUncertainty                string
	RelativeHumidity               string
	RelativeHumidityUncertainty    string
	AtmosphericPressure            string
	AtmosphericPressureUncertainty string
}

// CoefficientSet is the six calibration coefficients of a sensor.
type CoefficientSet struct {
	G     string
	H     string
	I     string
	J     string
	CPcor string
	CTcor string
}

// IsZero reports whether every coefficient is empty.
func (c CoefficientSet) IsZero() bool {
	return c == CoefficientSet{}
}

// Fields returns the coefficients in column order g, h, i, j, cpcor, ctcor.
func (c *CoefficientSet) Fields() []*string {
	return []*string{&c.G, &c.H, &c.I, &c.J, &c.CPcor, &c.CTcor}
}

// LastCalibration is the response of GET /api/sensors/{id}/last-calibration:
// the page-4 coefficients of the sensor's most recent completed report.
type LastCalibration struct {
	ReportID int64  `json:"report_id"`
	TestDate string `json:"test_date"`
	G        string `json:"page4_new_g"`
	H        string `json:"page4_new_h"`
	I        string `json:"page4_new_i"`
	J        string `json:"page4_new_j"`
	CPcor    string `json:"page4_new_cpcor"`
	CTcor    string `json:"page4_new_ctcor"`
}

// Coefficients returns the coefficient set carried by l.
func (l *LastCalibration) Coefficients() CoefficientSet {
	return CoefficientSet{G: l.G, H: l.H, I: l.I, J: l.J, CPcor: l.CPcor, CTcor: l.CTcor}
}

// ReportSummary is one row of GET /api/reports.
type ReportSummary struct {
	ID           int64        `json:"id"`
	ReportNumber string       `json:"report_number"`
	SensorID     *int64       `json:"sensor_id"`
	SensorName   *string      `json:"sensor_name"`
	SerialNumber *string      `json:"serial_number"`
	TestDate     string       `json:"test_date"`
	CreatedBy    string       `json:"created_by"`
	Authors      []string     `json:"authors"`
	LabUnit      string       `json:"lab_unit"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NormalizeCalendarDate trims a timestamp down to its YYYY-MM-DD part.
// Browsers sometimes send "2024-03-01T00:00:00.000Z" for date inputs.
func NormalizeCalendarDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Normalize applies the write-path defaults: trimmed dates, draft status
// when unset, empty slices instead of nil, and equipment ids re-derived
// from the snapshots so both stay index-aligned.
func (r *Report) Normalize() {
	r.TestDate = NormalizeCalendarDate(r.TestDate)
	r.AsReceived.TestDate = NormalizeCalendarDate(r.AsReceived.TestDate)
	r.New.TestDate = NormalizeCalendarDate(r.New.TestDate)

	if r.Status == "" {
		r.Status = ReportStatusDraft
	}
	if r.Authors == nil {
		r.Authors = []string{}
	}
	if r.Equipment == nil {
		r.Equipment = []EquipmentSnapshot{}
	}
	if len(r.Equipment) > 0 {
		ids := make([]int64, len(r.Equipment))
		for i, e := range r.Equipment {
			ids[i] = e.ID
		}
		r.EquipmentIDs = ids
	}
	if r.EquipmentIDs == nil {
		r.EquipmentIDs = []int64{}
	}
	if r.AsReceived.Measurements == nil {
		r.AsReceived.Measurements = []MeasurementRow{}
	}
	if r.New.Measurements == nil {
		r.New.Measurements = []MeasurementRow{}
	}
}

// Sheet returns the sheet for a measurement page number, or nil.
func (r *Report) Sheet(page int) *CalibrationSheet {
	switch page {
	case PageAsReceived:
		return &r.AsReceived
	case PageNew:
		return &r.New
	}
	return nil
}
