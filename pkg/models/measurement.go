package models

import (
	"encoding/json"

	"github.com/ekaya-inc/calibration-portal/pkg/jsonutil"
)

// MeasurementRow is one line of a sheet's measurement table. Values are kept
// as text so they round-trip exactly as entered.
type MeasurementRow struct {
	InstTemp              string `json:"inst_temp"`
	ReferenceConductivity string `json:"reference_conductivity"`
	InstFreq              string `json:"inst_freq"`
	PredictedConductivity string `json:"predicted_conductivity"`
	Residual              string `json:"residual"`
	// Set on read; ignored on write where order is the slice position.
	PageNumber int `json:"page_number,omitempty"`
	RowOrder   int `json:"row_order,omitempty"`
}

// MeasurementColumns lists the value columns in table order.
var MeasurementColumns = []string{
	"inst_temp",
	"reference_conductivity",
	"inst_freq",
	"predicted_conductivity",
	"residual",
}

// Values returns the five cell values in column order.
func (m MeasurementRow) Values() []string {
	return []string{m.InstTemp, m.ReferenceConductivity, m.InstFreq, m.PredictedConductivity, m.Residual}
}

// Cell returns a pointer to the named cell, or nil for an unknown column.
func (m *MeasurementRow) Cell(column string) *string {
	switch column {
	case "inst_temp":
		return &m.InstTemp
	case "reference_conductivity":
		return &m.ReferenceConductivity
	case "inst_freq":
		return &m.InstFreq
	case "predicted_conductivity":
		return &m.PredictedConductivity
	case "residual":
		return &m.Residual
	}
	return nil
}

// UnmarshalJSON accepts numbers as well as strings for every cell.
func (m *MeasurementRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		InstTemp              jsonutil.FlexibleString `json:"inst_temp"`
		ReferenceConductivity jsonutil.FlexibleString `json:"reference_conductivity"`
		InstFreq              jsonutil.FlexibleString `json:"inst_freq"`
		PredictedConductivity jsonutil.FlexibleString `json:"predicted_conductivity"`
		Residual              jsonutil.FlexibleString `json:"residual"`
		PageNumber            int                     `json:"page_number"`
		RowOrder              int                     `json:"row_order"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MeasurementRow{
		InstTemp:              raw.InstTemp.String(),
		ReferenceConductivity: raw.ReferenceConductivity.String(),
		InstFreq:              raw.InstFreq.String(),
		PredictedConductivity: raw.PredictedConductivity.String(),
		Residual:              raw.Residual.String(),
		PageNumber:            raw.PageNumber,
		RowOrder:              raw.RowOrder,
	}
	return nil
}
