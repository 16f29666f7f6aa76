package models

import "time"

// Personnel is a lab staff member who can author reports.
type Personnel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	LabUnit   string    `json:"lab_unit"`
	CreatedAt time.Time `json:"created_at"`
}

// Sensor is an instrument under test. SerialNumber is unique.
type Sensor struct {
	ID           int64     `json:"id"`
	SensorName   string    `json:"sensor_name" validate:"required"`
	SerialNumber string    `json:"serial_number" validate:"required"`
	PropertyOf   string    `json:"property_of"`
	Model        string    `json:"model"`
	SensorType   string    `json:"sensor_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Equipment is a reference instrument used while calibrating.
type Equipment struct {
	ID            int64     `json:"id"`
	Instrument    string    `json:"instrument" validate:"required"`
	Model         string    `json:"model"`
	SerialNumber  string    `json:"serial_number"`
	Notes         string    `json:"notes"`
	EquipmentType string    `json:"equipment_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot copies the fields a report keeps about a piece of equipment.
func (e *Equipment) Snapshot() EquipmentSnapshot {
	return EquipmentSnapshot{
		ID:           e.ID,
		Instrument:   e.Instrument,
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
		Notes:        e.Notes,
	}
}

// EquipmentBatchRequest is the body of POST /api/equipment/batch.
// A nil IDs slice (missing key) is rejected; an empty array is allowed.
type EquipmentBatchRequest struct {
	IDs []int64 `json:"ids" validate:"required"`
}

// MessageResponse is returned by delete endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
