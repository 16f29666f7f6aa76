package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load personnel, sensors and equipment from a YAML file",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		data, err := readSeedFile(seedFile)
		if err != nil {
			return err
		}

		ctx, release, err := database.WithScope(cmd.Context(), a.db)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer release()

		s := &seeder{
			personnel: services.NewPersonnelService(repositories.NewPersonnelRepository(), a.logger),
			sensors:   services.NewSensorService(repositories.NewSensorRepository(), repositories.NewReportRepository(), a.logger),
			equipment: services.NewEquipmentService(repositories.NewEquipmentRepository(), a.logger),
			logger:    a.logger.Named("seed"),
		}
		result, err := s.apply(ctx, data)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(),
			"seeded %d personnel, %d sensors (%d already present), %d equipment\n",
			result.Personnel, result.Sensors, result.SkippedSensors, result.Equipment)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "Seed data file")
}

// seedData is the layout of a seed file.
type seedData struct {
	Personnel []seedPersonnel `yaml:"personnel"`
	Sensors   []seedSensor    `yaml:"sensors"`
	Equipment []seedEquipment `yaml:"equipment"`
}

type seedPersonnel struct {
	Name    string `yaml:"name"`
	Role    string `yaml:"role"`
	Email   string `yaml:"email"`
	LabUnit string `yaml:"lab_unit"`
}

type seedSensor struct {
	SensorName   string `yaml:"sensor_name"`
	SerialNumber string `yaml:"serial_number"`
	PropertyOf   string `yaml:"property_of"`
	Model        string `yaml:"model"`
	SensorType   string `yaml:"sensor_type"`
}

type seedEquipment struct {
	Instrument    string `yaml:"instrument"`
	Model         string `yaml:"model"`
	SerialNumber  string `yaml:"serial_number"`
	Notes         string `yaml:"notes"`
	EquipmentType string `yaml:"equipment_type"`
}

func readSeedFile(path string) (*seedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return parseSeed(f)
}

// parseSeed decodes a seed document. Unknown keys are rejected so typos
// do not silently drop data.
func parseSeed(r io.Reader) (*seedData, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data seedData
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return &data, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

type personnelCreator interface {
	Create(ctx context.Context, p *models.Personnel) (*models.Personnel, error)
}

type sensorCreator interface {
	Create(ctx context.Context, sensor *models.Sensor) (*models.Sensor, error)
}

type equipmentCreator interface {
	Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error)
}

type seeder struct {
	personnel personnelCreator
	sensors   sensorCreator
	equipment equipmentCreator
	logger    *zap.Logger
}

type seedResult struct {
	Personnel      int
	Sensors        int
	SkippedSensors int
	Equipment      int
}

// apply creates every record in data through the services, so the same
// validation as the API applies. Sensors whose serial number already
// exists are skipped, which makes re-running a seed file harmless for them.
func (s *seeder) apply(ctx context.Context, data *seedData) (seedResult, error) {
	var res seedResult

	for i, p := range data.Personnel {
		if _, err := s.personnel.Create(ctx, &models.Personnel{
			Name: p.Name, Role: p.Role, Email: p.Email, LabUnit: p.LabUnit,
		}); err != nil {
			return res, fmt.Errorf("personnel[%d]: %w", i, err)
		}
		res.Personnel++
	}

	for i, sn := range data.Sensors {
		_, err := s.sensors.Create(ctx, &models.Sensor{
			SensorName:   sn.SensorName,
			SerialNumber: sn.SerialNumber,
			PropertyOf:   sn.PropertyOf,
			Model:        sn.Model,
			SensorType:   sn.SensorType,
		})
		if errors.Is(err, apperrors.ErrConflict) {
			s.logger.Info("Sensor already exists, skipping", zap.String("serial_number", sn.SerialNumber))
			res.SkippedSensors++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("sensors[%d]: %w", i, err)
		}
		res.Sensors++
	}

	for i, e := range data.Equipment {
		if _, err := s.equipment.Create(ctx, &models.Equipment{
			Instrument:    e.Instrument,
			Model:         e.Model,
			SerialNumber:  e.SerialNumber,
			Notes:         e.Notes,
			EquipmentType: e.EquipmentType,
		}); err != nil {
			return res, fmt.Errorf("equipment[%d]: %w", i, err)
		}
		res.Equipment++
	}

	s.logger.Info("Seed applied",
		zap.Int("personnel", res.Personnel),
		zap.Int("sensors", res.Sensors),
		zap.Int("skipped_sensors", res.SkippedSensors),
		zap.Int("equipment", res.Equipment))
	return res, nil
}
