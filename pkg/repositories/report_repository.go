package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// ReportRepository defines the interface for calibration report data access.
// Writes replace the whole aggregate: scalar columns are overwritten and the
// measurement tables are deleted and re-inserted in one transaction.
type ReportRepository interface {
	List(ctx context.Context) ([]*models.ReportSummary, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id int64) error
	LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error)
}

type reportRepository struct{}

// NewReportRepository creates a new report repository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

type columnKind int

const (
	kindPlain columnKind = iota
	kindDate             // '' is stored as NULL
	kindNullText         // '' is stored as NULL
	kindJSONB
)

type reportColumn struct {
	name string
	kind columnKind
}

var headerColumns = []reportColumn{
	{"report_number", kindPlain},
	{"sensor_id", kindPlain},
	{"test_date", kindDate},
	{"created_by", kindNullText},
	{"authors", kindPlain},
	{"lab_unit", kindPlain},
	{"status", kindPlain},
	{"equipment_ids", kindPlain},
	{"equipment_details", kindJSONB},
	{"conductivity_testing_level", kindPlain},
	{"uncertainty", kindPlain},
	{"conclusions", kindPlain},
	{"references", kindPlain},
	{"page1_footnotes", kindPlain},
	{"page2_footnotes", kindPlain},
	{"page5_footnotes", kindPlain},
}

// sheetColumns returns the columns of one calibration sheet in the order
// used by sheetValues and sheetScanTargets.
func sheetColumns(page int) []reportColumn {
	prefix := fmt.Sprintf("page%d_", page)
	coeffPrefix := prefix + "as_received_"
	if page == models.PageNew {
		coeffPrefix = prefix + "new_"
	}

	cols := []reportColumn{{prefix + "test_date", kindDate}}
	for _, n := range []string{
		"ambient_temp", "ambient_temp_uncertainty",
		"relative_humidity", "relative_humidity_uncertainty",
		"atmospheric_pressure", "atmospheric_pressure_uncertainty",
	} {
		cols = append(cols, reportColumn{prefix + n, kindPlain})
	}
	for _, n := range []string{"g", "h", "i", "j", "cpcor", "ctcor"} {
		cols = append(cols, reportColumn{coeffPrefix + n, kindPlain})
	}
	for _, n := range []string{"formula_text", "accuracy_note", "table_legend", "footnotes"} {
		cols = append(cols, reportColumn{prefix + n, kindPlain})
	}
	return cols
}

func sheetValues(s *models.CalibrationSheet) []any {
	a := &s.Ambient
	vals := []any{
		s.TestDate,
		a.Temp, a.TempUncertainty,
		a.RelativeHumidity, a.RelativeHumidityUncertainty,
		a.AtmosphericPressure, a.AtmosphericPressureUncertainty,
	}
	for _, c := range s.Coefficients.Fields() {
		vals = append(vals, *c)
	}
	return append(vals, s.FormulaText, s.AccuracyNote, s.TableLegend, s.Footnotes)
}

func sheetScanTargets(s *models.CalibrationSheet, date *pgtype.Date) []any {
	a := &s.Ambient
	targets := []any{
		date,
		&a.Temp, &a.TempUncertainty,
		&a.RelativeHumidity, &a.RelativeHumidityUncertainty,
		&a.AtmosphericPressure, &a.AtmosphericPressureUncertainty,
	}
	for _, c := range s.Coefficients.Fields() {
		targets = append(targets, c)
	}
	return append(targets, &s.FormulaText, &s.AccuracyNote, &s.TableLegend, &s.Footnotes)
}

func writeColumns() []reportColumn {
	cols := append([]reportColumn{}, headerColumns...)
	cols = append(cols, sheetColumns(models.PageAsReceived)...)
	return append(cols, sheetColumns(models.PageNew)...)
}

func writeValues(r *models.Report) ([]any, error) {
	details, err := json.Marshal(r.Equipment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal equipment details: %w", err)
	}
	authors := r.Authors
	if authors == nil {
		authors = []string{}
	}
	equipmentIDs := r.EquipmentIDs
	if equipmentIDs == nil {
		equipmentIDs = []int64{}
	}

	vals := []any{
		r.ReportNumber,
		r.SensorID,
		r.TestDate,
		r.CreatedBy,
		authors,
		r.LabUnit,
		string(r.Status),
		equipmentIDs,
		details,
		r.ConductivityTestingLevel,
		r.Uncertainty,
		r.Conclusions,
		r.References,
		r.Page1Footnotes,
		r.Page2Footnotes,
		r.Page5Footnotes,
	}
	vals = append(vals, sheetValues(&r.AsReceived)...)
	return append(vals, sheetValues(&r.New)...), nil
}

func placeholder(c reportColumn, n int) string {
	switch c.kind {
	case kindDate:
		return fmt.Sprintf("NULLIF($%d::text, '')::date", n)
	case kindNullText:
		return fmt.Sprintf("NULLIF($%d::text, '')", n)
	case kindJSONB:
		return fmt.Sprintf("$%d::jsonb", n)
	}
	return fmt.Sprintf("$%d", n)
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

var (
	insertReportSQL = buildInsertReportSQL()
	updateReportSQL = buildUpdateReportSQL()
	selectReportSQL = buildSelectReportSQL()
)

func buildInsertReportSQL() string {
	cols := writeColumns()
	names := make([]string, len(cols))
	exprs := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quote(c.name)
		exprs[i] = placeholder(c, i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO calibration_reports (%s)\nVALUES (%s)\nRETURNING id, created_at, updated_at",
		strings.Join(names, ", "), strings.Join(exprs, ", "))
}

// buildUpdateReportSQL overwrites every writable column; the report id is
// the last parameter.
func buildUpdateReportSQL() string {
	cols := writeColumns()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quote(c.name) + " = " + placeholder(c, i+1)
	}
	return fmt.Sprintf(
		"UPDATE calibration_reports\nSET %s, updated_at = NOW()\nWHERE id = $%d\nRETURNING created_at, updated_at",
		strings.Join(sets, ", "), len(cols)+1)
}

func buildSelectReportSQL() string {
	cols := []string{
		"r.id", "r.report_number", "r.sensor_id", "r.test_date", "COALESCE(r.created_by, '')",
		"r.authors", "r.lab_unit", "r.status", "r.equipment_ids", "r.equipment_details",
		"r.conductivity_testing_level", "r.uncertainty", "r.conclusions", `r."references"`,
		"r.page1_footnotes", "r.page2_footnotes", "r.page5_footnotes",
	}
	for _, page := range []int{models.PageAsReceived, models.PageNew} {
		for _, c := range sheetColumns(page) {
			cols = append(cols, "r."+quote(c.name))
		}
	}
	cols = append(cols,
		"r.created_at", "r.updated_at",
		"s.sensor_name", "s.serial_number", "COALESCE(s.property_of, '')", "COALESCE(s.model, '')",
	)
	return fmt.Sprintf(
		"SELECT %s\nFROM calibration_reports r\nLEFT JOIN sensors s ON s.id = r.sensor_id\nWHERE r.id = $1",
		strings.Join(cols, ", "))
}

func formatDate(d pgtype.Date) string {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// List returns report summaries, newest test date first. Reports without
// a test date sort last.
func (r *reportRepository) List(ctx context.Context) ([]*models.ReportSummary, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `
		SELECT r.id, r.report_number, r.sensor_id, s.sensor_name, s.serial_number, r.test_date,
		       COALESCE(r.created_by, ''), r.authors, r.lab_unit, r.status, r.created_at, r.updated_at
		FROM calibration_reports r
		LEFT JOIN sensors s ON s.id = r.sensor_id
		ORDER BY r.test_date DESC NULLS LAST, r.id DESC`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.ReportSummary, 0)
	for rows.Next() {
		var s models.ReportSummary
		var testDate pgtype.Date
		var status string
		err := rows.Scan(
			&s.ID,
			&s.ReportNumber,
			&s.SensorID,
			&s.SensorName,
			&s.SerialNumber,
			&testDate,
			&s.CreatedBy,
			&s.Authors,
			&s.LabUnit,
			&status,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report summary: %w", err)
		}
		s.TestDate = formatDate(testDate)
		s.Status = models.ReportStatus(status)
		if s.Authors == nil {
			s.Authors = []string{}
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return summaries, nil
}

// GetByID reassembles the full aggregate. The report row and its
// measurements are read from one snapshot.
func (r *reportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	tx, err := scope.Conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, nothing to keep

	report, err := scanReport(tx.QueryRow(ctx, selectReportSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if err := loadMeasurements(ctx, tx, report); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return report, nil
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var (
		rep                           models.Report
		testDate, p3Date, p4Date      pgtype.Date
		status                        string
		details                       []byte
		sensorName, sensorSerial      *string
		sensorPropertyOf, sensorModel string
	)

	targets := []any{
		&rep.ID, &rep.ReportNumber, &rep.SensorID, &testDate, &rep.CreatedBy,
		&rep.Authors, &rep.LabUnit, &status, &rep.EquipmentIDs, &details,
		&rep.ConductivityTestingLevel, &rep.Uncertainty, &rep.Conclusions, &rep.References,
		&rep.Page1Footnotes, &rep.Page2Footnotes, &rep.Page5Footnotes,
	}
	targets = append(targets, sheetScanTargets(&rep.AsReceived, &p3Date)...)
	targets = append(targets, sheetScanTargets(&rep.New, &p4Date)...)
	targets = append(targets,
		&rep.CreatedAt, &rep.UpdatedAt,
		&sensorName, &sensorSerial, &sensorPropertyOf, &sensorModel,
	)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	rep.TestDate = formatDate(testDate)
	rep.AsReceived.TestDate = formatDate(p3Date)
	rep.New.TestDate = formatDate(p4Date)
	rep.Status = models.ReportStatus(status)

	rep.Equipment = []models.EquipmentSnapshot{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rep.Equipment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal equipment details: %w", err)
		}
	}
	if rep.Authors == nil {
		rep.Authors = []string{}
	}
	if rep.EquipmentIDs == nil {
		rep.EquipmentIDs = []int64{}
	}

	if sensorName != nil {
		rep.Sensor = &models.SensorInfo{
			SensorName:   *sensorName,
			SerialNumber: deref(sensorSerial),
			PropertyOf:   sensorPropertyOf,
			Model:        sensorModel,
		}
	}

	return &rep, nil
}

func loadMeasurements(ctx context.Context, q pgx.Tx, rep *models.Report) error {
	query := `
		SELECT page_number, row_order, inst_temp, reference_conductivity, inst_freq,
		       predicted_conductivity, residual
		FROM report_measurements
		WHERE report_id = $1
		ORDER BY page_number ASC, row_order ASC`

	rows, err := q.Query(ctx, query, rep.ID)
	if err != nil {
		return fmt.Errorf("failed to get measurements: %w", err)
	}
	defer rows.Close()

	rep.AsReceived.Measurements = []models.MeasurementRow{}
	rep.New.Measurements = []models.MeasurementRow{}
	for rows.Next() {
		var m models.MeasurementRow
		var page int16
		var order int32
		err := rows.Scan(&page, &order, &m.InstTemp, &m.ReferenceConductivity, &m.InstFreq,
			&m.PredictedConductivity, &m.Residual)
		if err != nil {
			return fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.PageNumber = int(page)
		m.RowOrder = int(order)
		if sheet := rep.Sheet(m.PageNumber); sheet != nil {
			sheet.Measurements = append(sheet.Measurements, m)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate measurements: %w", err)
	}
	return nil
}

// Create inserts the report and both measurement tables atomically and
// fills in ID, CreatedAt and UpdatedAt.
func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	vals, err := writeValues(report)
	if err != nil {
		return err
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	err = tx.QueryRow(ctx, insertReportSQL, vals...).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if err := insertMeasurements(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update overwrites all scalar columns and replaces both measurement tables.
// Returns apperrors.ErrNotFound, with nothing written, when the id is unknown.
func (r *reportRepository) Update(ctx context.Context, report *models.Report) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	vals, err := writeValues(report)
	if err != nil {
		return err
	}
	vals = append(vals, report.ID)

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	err = tx.QueryRow(ctx, updateReportSQL, vals...).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update report: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM report_measurements WHERE report_id = $1`, report.ID); err != nil {
		return fmt.Errorf("failed to clear measurements: %w", err)
	}

	if err := insertMeasurements(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var measurementCopyColumns = append([]string{"report_id", "page_number", "row_order"}, models.MeasurementColumns...)

// insertMeasurements writes both pages with row_order re-derived from the
// slice position, 1..N per page.
func insertMeasurements(ctx context.Context, tx pgx.Tx, report *models.Report) error {
	var rows [][]any
	for _, page := range []int{models.PageAsReceived, models.PageNew} {
		for i, m := range report.Sheet(page).Measurements {
			rows = append(rows, []any{
				report.ID, int16(page), int32(i + 1),
				m.InstTemp, m.ReferenceConductivity, m.InstFreq, m.PredictedConductivity, m.Residual,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"report_measurements"}, measurementCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert measurements: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("inserted %d of %d measurements", n, len(rows))
	}
	return nil
}

// Delete removes a report; its measurement rows go with it via ON DELETE CASCADE.
func (r *reportRepository) Delete(ctx context.Context, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return database.ErrNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM calibration_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LastCalibration returns the page-4 coefficients of the sensor's most
// recent completed report. Drafts are ignored.
func (r *reportRepository) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `
		SELECT id, test_date, page4_new_g, page4_new_h, page4_new_i, page4_new_j,
		       page4_new_cpcor, page4_new_ctcor
		FROM calibration_reports
		WHERE sensor_id = $1 AND status = 'completed'
		ORDER BY test_date DESC NULLS LAST, id DESC
		LIMIT 1`

	var lc models.LastCalibration
	var testDate pgtype.Date
	err := scope.Conn.QueryRow(ctx, query, sensorID).Scan(
		&lc.ReportID, &testDate, &lc.G, &lc.H, &lc.I, &lc.J, &lc.CPcor, &lc.CTcor,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last calibration: %w", err)
	}
	lc.TestDate = formatDate(testDate)
	return &lc, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ensure reportRepository implements ReportRepository at compile time.
var _ ReportRepository = (*reportRepository)(nil)
