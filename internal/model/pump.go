package model

import (
	"fmt"
	"time"
)

// PumpType enumerates the supported pump mechanisms.
type PumpType string

const (
	TypeCentrifugal PumpType = "Centrifugal"
	TypeSubmersible PumpType = "Submersible"
	TypeDiaphragm   PumpType = "Diaphragm"
	TypeRotary      PumpType = "Rotary"
	TypePeristaltic PumpType = "Peristaltic"
)

// PumpTypes lists every valid PumpType, in display order.
var PumpTypes = []PumpType{
	TypeCentrifugal,
	TypeSubmersible,
	TypeDiaphragm,
	TypeRotary,
	TypePeristaltic,
}

// Valid reports whether t is one of the known pump types.
func (t PumpType) Valid() bool {
	for _, known := range PumpTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PumpStatus enumerates the operational states of a pump. Status is never
// derived from telemetry by this service; it is set on creation and changed
// only by explicit override or by the upstream system in remote mode.
type PumpStatus string

const (
	StatusOperational PumpStatus = "Operational"
	StatusWarning     PumpStatus = "Warning"
	StatusError       PumpStatus = "Error"
	StatusMaintenance PumpStatus = "Maintenance"
)

// Valid reports whether s is one of the known pump statuses.
func (s PumpStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusWarning, StatusError, StatusMaintenance:
		return true
	}
	return false
}

// Location is a pump's geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Pressure is a pump's current pressure reading and its configured bounds,
// all in PSI. Min < Max always holds after a successful store operation;
// Current is re-clamped into [Min, Max] whenever the bounds move.
type Pressure struct {
	Current float64 `json:"current"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Pump is the canonical persisted record for one physical pump. The backing
// store is the sole writer; everything else holds transient read-only copies.
type Pump struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        PumpType   `json:"type"`
	Area        string     `json:"area"`
	Location    Location   `json:"location"`
	FlowRate    float64    `json:"flowRate"` // GPM
	Offset      float64    `json:"offset"`   // seconds
	Pressure    Pressure   `json:"pressure"`
	Status      PumpStatus `json:"status"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// PumpFormData is the mutable subset of a Pump accepted from create forms.
// ID, status, current pressure and lastUpdated are store-managed.
type PumpFormData struct {
	Name        string   `json:"name" binding:"required"`
	Type        PumpType `json:"type" binding:"required"`
	Area        string   `json:"area" binding:"required"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	FlowRate    float64  `json:"flowRate"`
	Offset      float64  `json:"offset"`
	MinPressure float64  `json:"minPressure"`
	MaxPressure float64  `json:"maxPressure"`
}

// Validate applies the form-level constraints before the data reaches a
// backing store.
func (f PumpFormData) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("unknown pump type %q", f.Type)
	}
	if f.Area == "" {
		return fmt.Errorf("area is required")
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", f.Latitude)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", f.Longitude)
	}
	if f.FlowRate < 0 {
		return fmt.Errorf("flow rate must not be negative")
	}
	if f.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if f.MinPressure < 0 || f.MaxPressure < 0 {
		return fmt.Errorf("pressure bounds must not be negative")
	}
	if f.MinPressure >= f.MaxPressure {
		return fmt.Errorf("minPressure %v must be less than maxPressure %v", f.MinPressure, f.MaxPressure)
	}
	return nil
}

// PumpUpdate is a partial edit of a pump. Nil fields are left untouched.
type PumpUpdate struct {
	Name        *string   `json:"name"`
	Type        *PumpType `json:"type"`
	Area        *string   `json:"area"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	FlowRate    *float64  `json:"flowRate"`
	Offset      *float64  `json:"offset"`
	MinPressure *float64  `json:"minPressure"`
	MaxPressure *float64  `json:"maxPressure"`
}

// Validate checks the fields that are present. Bound ordering against the
// stored record is enforced by the store, which knows the missing half.
func (u PumpUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if u.Type != nil && !u.Type.Valid() {
		return fmt.Errorf("unknown pump type %q", *u.Type)
	}
	if u.Area != nil && *u.Area == "" {
		return fmt.Errorf("area must not be empty")
	}
	if u.Latitude != nil && (*u.Latitude < -90 || *u.Latitude > 90) {
		return fmt.Errorf("latitude %v out of range [-90, 90]", *u.Latitude)
	}
	if u.Longitude != nil && (*u.Longitude < -180 || *u.Longitude > 180) {
		return fmt.Errorf("longitude %v out of range [-180, 180]", *u.Longitude)
	}
	if u.FlowRate != nil && *u.FlowRate < 0 {
		return fmt.Errorf("flow rate must not be negative")
	}
	if u.Offset != nil && *u.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if u.MinPressure != nil && *u.MinPressure < 0 {
		return fmt.Errorf("minPressure must not be negative")
	}
	if u.MaxPressure != nil && *u.MaxPressure < 0 {
		return fmt.Errorf("maxPressure must not be negative")
	}
	if u.MinPressure != nil && u.MaxPressure != nil && *u.MinPressure >= *u.MaxPressure {
		return fmt.Errorf("minPressure %v must be less than maxPressure %v", *u.MinPressure, *u.MaxPressure)
	}
	return nil
}

// PressureSample is one point of a pressure-over-time series.
type PressureSample struct {
	Time     time.Time `json:"time"`
	Pressure float64   `json:"pressure"`
}

// Statistics is the aggregate view over the whole pump collection.
type Statistics struct {
	TotalPumps       int     `json:"totalPumps"`
	OperationalPumps int     `json:"operationalPumps"`
	WarningPumps     int     `json:"warningPumps"`
	ErrorPumps       int     `json:"errorPumps"`
	MaintenancePumps int     `json:"maintenancePumps"`
	AverageFlowRate  float64 `json:"averageFlowRate"`
	AveragePressure  float64 `json:"averagePressure"`
}
