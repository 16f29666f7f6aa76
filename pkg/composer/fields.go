package composer

import "github.com/ekaya-inc/calibration-portal/pkg/models"

type fieldRef struct {
	ptr       func(*models.Report) *string
	normalize bool
}

// textFields maps JSON keys to the report's free-text fields.
var textFields = buildTextFields()

func buildTextFields() map[string]fieldRef {
	fields := map[string]fieldRef{
		"report_number":              {ptr: func(r *models.Report) *string { return &r.ReportNumber }},
		"test_date":                  {ptr: func(r *models.Report) *string { return &r.TestDate }},
		"created_by":                 {ptr: func(r *models.Report) *string { return &r.CreatedBy }},
		"lab_unit":                   {ptr: func(r *models.Report) *string { return &r.LabUnit }},
		"conductivity_testing_level": {ptr: func(r *models.Report) *string { return &r.ConductivityTestingLevel }},
		"uncertainty":                {ptr: func(r *models.Report) *string { return &r.Uncertainty }},
		"page1_footnotes":            {ptr: func(r *models.Report) *string { return &r.Page1Footnotes }},
		"page2_footnotes":            {ptr: func(r *models.Report) *string { return &r.Page2Footnotes }},
		"conclusions":                {ptr: func(r *models.Report) *string { return &r.Conclusions }},
		"references":                 {ptr: func(r *models.Report) *string { return &r.References }},
		"page5_footnotes":            {ptr: func(r *models.Report) *string { return &r.Page5Footnotes }},
	}

	sheets := []struct {
		prefix     string
		coefPrefix string
		page       int
		normalize  bool
	}{
		{"page3_", "page3_as_received_", models.PageAsReceived, false},
		{"page4_", "page4_new_", models.PageNew, true},
	}

	for _, sh := range sheets {
		page := sh.page
		sheet := func(r *models.Report) *models.CalibrationSheet { return r.Sheet(page) }

		fields[sh.prefix+"test_date"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).TestDate }}
		fields[sh.prefix+"ambient_temp"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.Temp }}
		fields[sh.prefix+"ambient_temp_uncertainty"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.TempUncertainty }}
		fields[sh.prefix+"relative_humidity"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.RelativeHumidity }}
		fields[sh.prefix+"relative_humidity_uncertainty"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.RelativeHumidityUncertainty }}
		fields[sh.prefix+"atmospheric_pressure"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.AtmosphericPressure }}
		fields[sh.prefix+"atmospheric_pressure_uncertainty"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Ambient.AtmosphericPressureUncertainty }}
		fields[sh.prefix+"formula_text"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).FormulaText }}
		fields[sh.prefix+"accuracy_note"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).AccuracyNote }}
		fields[sh.prefix+"table_legend"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).TableLegend }}
		fields[sh.prefix+"footnotes"] = fieldRef{ptr: func(r *models.Report) *string { return &sheet(r).Footnotes }}

		for i, name := range []string{"g", "h", "i", "j", "cpcor", "ctcor"} {
			idx := i
			fields[sh.coefPrefix+name] = fieldRef{
				ptr:       func(r *models.Report) *string { return sheet(r).Coefficients.Fields()[idx] },
				normalize: sh.normalize,
			}
		}
	}
	return fields
}
