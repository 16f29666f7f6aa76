package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/calibration-portal/pkg/jsonutil"
)

type fs = jsonutil.FlexibleString

// reportWire is the flat JSON document exchanged with clients. Keys follow
// the calibration_reports column names; text fields accept numbers.
type reportWire struct {
	ID           int64      `json:"id,omitempty"`
	ReportNumber fs         `json:"report_number"`
	SensorID     optionalID `json:"sensor_id"`
	SensorName   *string    `json:"sensor_name"`
	SerialNumber *string    `json:"serial_number"`
	PropertyOf   *string    `json:"property_of"`
	Model        *string    `json:"model"`
	TestDate     fs         `json:"test_date"`
	CreatedBy    fs         `json:"created_by"`
	Authors      []string   `json:"authors"`
	LabUnit      fs         `json:"lab_unit"`
	Status       fs         `json:"status"`

	EquipmentIDs             idList              `json:"equipment_ids"`
	SelectedEquipment        []EquipmentSnapshot `json:"selected_equipment"`
	ConductivityTestingLevel fs                  `json:"conductivity_testing_level"`
	Uncertainty              fs                  `json:"uncertainty"`
	Page1Footnotes           fs                  `json:"page1_footnotes"`
	Page2Footnotes           fs                  `json:"page2_footnotes"`

	Page3TestDate                       fs               `json:"page3_test_date"`
	Page3AmbientTemp                    fs               `json:"page3_ambient_temp"`
	Page3AmbientTempUncertainty         fs               `json:"page3_ambient_temp_uncertainty"`
	Page3RelativeHumidity               fs               `json:"page3_relative_humidity"`
	Page3RelativeHumidityUncertainty    fs               `json:"page3_relative_humidity_uncertainty"`
	Page3AtmosphericPressure            fs               `json:"page3_atmospheric_pressure"`
	Page3AtmosphericPressureUncertainty fs               `json:"page3_atmospheric_pressure_uncertainty"`
	Page3G                              fs               `json:"page3_as_received_g"`
	Page3H                              fs               `json:"page3_as_received_h"`
	Page3I                              fs               `json:"page3_as_received_i"`
	Page3J                              fs               `json:"page3_as_received_j"`
	Page3CPcor                          fs               `json:"page3_as_received_cpcor"`
	Page3CTcor                          fs               `json:"page3_as_received_ctcor"`
	Page3FormulaText                    fs               `json:"page3_formula_text"`
	Page3AccuracyNote                   fs               `json:"page3_accuracy_note"`
	Page3TableLegend                    fs               `json:"page3_table_legend"`
	Page3Footnotes                      fs               `json:"page3_footnotes"`
	Page3Measurements                   []MeasurementRow `json:"page3_measurements"`

	Page4TestDate                       fs               `json:"page4_test_date"`
	Page4AmbientTemp                    fs               `json:"page4_ambient_temp"`
	Page4AmbientTempUncertainty         fs               `json:"page4_ambient_temp_uncertainty"`
	Page4RelativeHumidity               fs               `json:"page4_relative_humidity"`
	Page4RelativeHumidityUncertainty    fs               `json:"page4_relative_humidity_uncertainty"`
	Page4AtmosphericPressure            fs               `json:"page4_atmospheric_pressure"`
	Page4AtmosphericPressureUncertainty fs               `json:"page4_atmospheric_pressure_uncertainty"`
	Page4G                              fs               `json:"page4_new_g"`
	Page4H                              fs               `json:"page4_new_h"`
	Page4I                              fs               `json:"page4_new_i"`
	Page4J                              fs               `json:"page4_new_j"`
	Page4CPcor                          fs               `json:"page4_new_cpcor"`
	Page4CTcor                          fs               `json:"page4_new_ctcor"`
	Page4FormulaText                    fs               `json:"page4_formula_text"`
	Page4AccuracyNote                   fs               `json:"page4_accuracy_note"`
	Page4TableLegend                    fs               `json:"page4_table_legend"`
	Page4Footnotes                      fs               `json:"page4_footnotes"`
	Page4Measurements                   []MeasurementRow `json:"page4_measurements"`

	Conclusions    fs `json:"conclusions"`
	References     fs `json:"references"`
	Page5Footnotes fs `json:"page5_footnotes"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// MarshalJSON renders the report as the flat document clients expect.
func (r Report) MarshalJSON() ([]byte, error) {
	w := reportWire{
		ID:                       r.ID,
		ReportNumber:             fs(r.ReportNumber),
		SensorID:                 optionalID{r.SensorID},
		TestDate:                 fs(r.TestDate),
		CreatedBy:                fs(r.CreatedBy),
		Authors:                  nonNilStrings(r.Authors),
		LabUnit:                  fs(r.LabUnit),
		Status:                   fs(r.Status),
		EquipmentIDs:             idList(r.EquipmentIDs),
		SelectedEquipment:        r.Equipment,
		ConductivityTestingLevel: fs(r.ConductivityTestingLevel),
		Uncertainty:              fs(r.Uncertainty),
		Page1Footnotes:           fs(r.Page1Footnotes),
		Page2Footnotes:           fs(r.Page2Footnotes),
		Conclusions:              fs(r.Conclusions),
		References:               fs(r.References),
		Page5Footnotes:           fs(r.Page5Footnotes),
	}
	if w.EquipmentIDs == nil {
		w.EquipmentIDs = idList{}
	}
	if w.SelectedEquipment == nil {
		w.SelectedEquipment = []EquipmentSnapshot{}
	}
	if r.Sensor != nil {
		w.SensorName = &r.Sensor.SensorName
		w.SerialNumber = &r.Sensor.SerialNumber
		w.PropertyOf = &r.Sensor.PropertyOf
		w.Model = &r.Sensor.Model
	}
	if !r.CreatedAt.IsZero() {
		w.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		w.UpdatedAt = &r.UpdatedAt
	}

	p3 := &r.AsReceived
	w.Page3TestDate = fs(p3.TestDate)
	w.Page3AmbientTemp = fs(p3.Ambient.Temp)
	w.Page3AmbientTempUncertainty = fs(p3.Ambient.TempUncertainty)
	w.Page3RelativeHumidity = fs(p3.Ambient.RelativeHumidity)
	w.Page3RelativeHumidityUncertainty = fs(p3.Ambient.RelativeHumidityUncertainty)
	w.Page3AtmosphericPressure = fs(p3.Ambient.AtmosphericPressure)
	w.Page3AtmosphericPressureUncertainty = fs(p3.Ambient.AtmosphericPressureUncertainty)
	w.Page3G, w.Page3H, w.Page3I = fs(p3.Coefficients.G), fs(p3.Coefficients.H), fs(p3.Coefficients.I)
	w.Page3J, w.Page3CPcor, w.Page3CTcor = fs(p3.Coefficients.J), fs(p3.Coefficients.CPcor), fs(p3.Coefficients.CTcor)
	w.Page3FormulaText = fs(p3.FormulaText)
	w.Page3AccuracyNote = fs(p3.AccuracyNote)
	w.Page3TableLegend = fs(p3.TableLegend)
	w.Page3Footnotes = fs(p3.Footnotes)
	w.Page3Measurements = nonNilRows(p3.Measurements)

	p4 := &r.New
	w.Page4TestDate = fs(p4.TestDate)
	w.Page4AmbientTemp = fs(p4.Ambient.Temp)
	w.Page4AmbientTempUncertainty = fs(p4.Ambient.TempUncertainty)
	w.Page4RelativeHumidity = fs(p4.Ambient.RelativeHumidity)
	w.Page4RelativeHumidityUncertainty = fs(p4.Ambient.RelativeHumidityUncertainty)
	w.Page4AtmosphericPressure = fs(p4.Ambient.AtmosphericPressure)
	w.Page4AtmosphericPressureUncertainty = fs(p4.Ambient.AtmosphericPressureUncertainty)
	w.Page4G, w.Page4H, w.Page4I = fs(p4.Coefficients.G), fs(p4.Coefficients.H), fs(p4.Coefficients.I)
	w.Page4J, w.Page4CPcor, w.Page4CTcor = fs(p4.Coefficients.J), fs(p4.Coefficients.CPcor), fs(p4.Coefficients.CTcor)
	w.Page4FormulaText = fs(p4.FormulaText)
	w.Page4AccuracyNote = fs(p4.AccuracyNote)
	w.Page4TableLegend = fs(p4.TableLegend)
	w.Page4Footnotes = fs(p4.Footnotes)
	w.Page4Measurements = nonNilRows(p4.Measurements)

	return json.Marshal(w)
}

// UnmarshalJSON reads the flat client document. Joined sensor fields and
// timestamps are read back too so a fetched report can be re-decoded.
func (r *Report) UnmarshalJSON(data []byte) error {
	var w reportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Report{
		ID:                       w.ID,
		ReportNumber:             w.ReportNumber.String(),
		SensorID:                 w.SensorID.v,
		TestDate:                 w.TestDate.String(),
		CreatedBy:                w.CreatedBy.String(),
		Authors:                  w.Authors,
		LabUnit:                  w.LabUnit.String(),
		Status:                   ReportStatus(w.Status.String()),
		EquipmentIDs:             []int64(w.EquipmentIDs),
		Equipment:                w.SelectedEquipment,
		ConductivityTestingLevel: w.ConductivityTestingLevel.String(),
		Uncertainty:              w.Uncertainty.String(),
		Page1Footnotes:           w.Page1Footnotes.String(),
		Page2Footnotes:           w.Page2Footnotes.String(),
		Conclusions:              w.Conclusions.String(),
		References:               w.References.String(),
		Page5Footnotes:           w.Page5Footnotes.String(),
		AsReceived: CalibrationSheet{
			TestDate: w.Page3TestDate.String(),
			Ambient: AmbientConditions{
				Temp:                           w.Page3AmbientTemp.String(),
				TempUncertainty:                w.Page3AmbientTempUncertainty.String(),
				RelativeHumidity:               w.Page3RelativeHumidity.String(),
				RelativeHumidityUncertainty:    w.Page3RelativeHumidityUncertainty.String(),
				AtmosphericPressure:            w.Page3AtmosphericPressure.String(),
				AtmosphericPressureUncertainty: w.Page3AtmosphericPressureUncertainty.String(),
			},
			Coefficients: CoefficientSet{
				G:     w.Page3G.String(),
				H:     w.Page3H.String(),
				I:     w.Page3I.String(),
				J:     w.Page3J.String(),
				CPcor: w.Page3CPcor.String(),
				CTcor: w.Page3CTcor.String(),
			},
			FormulaText:  w.Page3FormulaText.String(),
			AccuracyNote: w.Page3AccuracyNote.String(),
			TableLegend:  w.Page3TableLegend.String(),
			Footnotes:    w.Page3Footnotes.String(),
			Measurements: w.Page3Measurements,
		},
		New: CalibrationSheet{
			TestDate: w.Page4TestDate.String(),
			Ambient: AmbientConditions{
				Temp:                           w.Page4AmbientTemp.String(),
				TempUncertainty:                w.Page4AmbientTempUncertainty.String(),
				RelativeHumidity:               w.Page4RelativeHumidity.String(),
				RelativeHumidityUncertainty:    w.Page4RelativeHumidityUncertainty.String(),
				AtmosphericPressure:            w.Page4AtmosphericPressure.String(),
				AtmosphericPressureUncertainty: w.Page4AtmosphericPressureUncertainty.String(),
			},
			Coefficients: CoefficientSet{
				G:     w.Page4G.String(),
				H:     w.Page4H.String(),
				I:     w.Page4I.String(),
				J:     w.Page4J.String(),
				CPcor: w.Page4CPcor.String(),
				CTcor: w.Page4CTcor.String(),
			},
			FormulaText:  w.Page4FormulaText.String(),
			AccuracyNote: w.Page4AccuracyNote.String(),
			TableLegend:  w.Page4TableLegend.String(),
			Footnotes:    w.Page4Footnotes.String(),
			Measurements: w.Page4Measurements,
		},
	}

	if w.SensorName != nil || w.SerialNumber != nil {
		r.Sensor = &SensorInfo{
			SensorName:   deref(w.SensorName),
			SerialNumber: deref(w.SerialNumber),
			PropertyOf:   deref(w.PropertyOf),
			Model:        deref(w.Model),
		}
	}
	if w.CreatedAt != nil {
		r.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		r.UpdatedAt = *w.UpdatedAt
	}
	return nil
}

// optionalID decodes null, "", a number or a numeric string. Zero decodes as nil.
type optionalID struct {
	v *int64
}

func (o optionalID) MarshalJSON() ([]byte, error) {
	if o.v == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(*o.v, 10)), nil
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	id, ok, err := parseFlexibleID(data)
	if err != nil {
		return err
	}
	// 0 means "no sensor selected", like null and "".
	if !ok || id == 0 {
		o.v = nil
		return nil
	}
	o.v = &id
	return nil
}

// idList decodes an array of numbers or numeric strings.
type idList []int64

func (l *idList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}
	ids := make(idList, 0, len(raw))
	for _, item := range raw {
		id, ok, err := parseFlexibleID(item)
		if err != nil {
			return err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	*l = ids
	return nil
}

func parseFlexibleID(data []byte) (int64, bool, error) {
	s := strings.TrimSpace(jsonutil.FlexibleStringValue(data))
	if s == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid id %q", s)
	}
	return id, true, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(rows []MeasurementRow) []MeasurementRow {
	if rows == nil {
		return []MeasurementRow{}
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
