package remote

import (
	"time"

	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// The upstream backend speaks UpperCamel-cased JSON. Rather than re-casing
// arbitrary object graphs at runtime, the conversion is a typed transform
// over the closed set of wire shapes below; adding a field means adding it
// here and in the converter, nowhere else.

type wireLocation struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

type wirePressure struct {
	Current float64 `json:"Current"`
	Min     float64 `json:"Min"`
	Max     float64 `json:"Max"`
}

type wirePump struct {
	ID          string       `json:"Id"`
	Name        string       `json:"Name"`
	Type        string       `json:"Type"`
	Area        string       `json:"Area"`
	Location    wireLocation `json:"Location"`
	FlowRate    float64      `json:"FlowRate"`
	Offset      float64      `json:"Offset"`
	Pressure    wirePressure `json:"Pressure"`
	Status      string       `json:"Status"`
	LastUpdated time.Time    `json:"LastUpdated"`
}

type wireForm struct {
	Name        string  `json:"Name"`
	Type        string  `json:"Type"`
	Area        string  `json:"Area"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
	FlowRate    float64 `json:"FlowRate"`
	Offset      float64 `json:"Offset"`
	MinPressure float64 `json:"MinPressure"`
	MaxPressure float64 `json:"MaxPressure"`
}

type wireUpdate struct {
	Name        *string  `json:"Name,omitempty"`
	Type        *string  `json:"Type,omitempty"`
	Area        *string  `json:"Area,omitempty"`
	Latitude    *float64 `json:"Latitude,omitempty"`
	Longitude   *float64 `json:"Longitude,omitempty"`
	FlowRate    *float64 `json:"FlowRate,omitempty"`
	Offset      *float64 `json:"Offset,omitempty"`
	MinPressure *float64 `json:"MinPressure,omitempty"`
	MaxPressure *float64 `json:"MaxPressure,omitempty"`
}

type wireListEnvelope struct {
	Pumps      []wirePump `json:"Pumps"`
	TotalCount int        `json:"TotalCount"`
	Page       int        `json:"Page"`
	PageSize   int        `json:"PageSize"`
}

type wireStatistics struct {
	TotalPumps       int     `json:"TotalPumps"`
	OperationalPumps int     `json:"OperationalPumps"`
	WarningPumps     int     `json:"WarningPumps"`
	ErrorPumps       int     `json:"ErrorPumps"`
	MaintenancePumps int     `json:"MaintenancePumps"`
	AverageFlowRate  float64 `json:"AverageFlowRate"`
	AveragePressure  float64 `json:"AveragePressure"`
}

type wireSample struct {
	Time     time.Time `json:"Time"`
	Pressure float64   `json:"Pressure"`
}

func pumpToWire(p model.Pump) wirePump {
	return wirePump{
		ID:   p.ID,
		Name: p.Name,
		Type: string(p.Type),
		Area: p.Area,
		Location: wireLocation{
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		},
		FlowRate: p.FlowRate,
		Offset:   p.Offset,
		Pressure: wirePressure{
			Current: p.Pressure.Current,
			Min:     p.Pressure.Min,
			Max:     p.Pressure.Max,
		},
		Status:      string(p.Status),
		LastUpdated: p.LastUpdated,
	}
}

func pumpFromWire(w wirePump) model.Pump {
	return model.Pump{
		ID:   w.ID,
		Name: w.Name,
		Type: model.PumpType(w.Type),
		Area: w.Area,
		Location: model.Location{
			Latitude:  w.Location.Latitude,
			Longitude: w.Location.Longitude,
		},
		FlowRate: w.FlowRate,
		Offset:   w.Offset,
		Pressure: model.Pressure{
			Current: w.Pressure.Current,
			Min:     w.Pressure.Min,
			Max:     w.Pressure.Max,
		},
		Status:      model.PumpStatus(w.Status),
		LastUpdated: w.LastUpdated,
	}
}

func pumpsFromWire(ws []wirePump) []model.Pump {
	pumps := make([]model.Pump, 0, len(ws))
	for _, w := range ws {
		pumps = append(pumps, pumpFromWire(w))
	}
	return pumps
}

func formToWire(f model.PumpFormData) wireForm {
	return wireForm{
		Name:        f.Name,
		Type:        string(f.Type),
		Area:        f.Area,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
		FlowRate:    f.FlowRate,
		Offset:      f.Offset,
		MinPressure: f.MinPressure,
		MaxPressure: f.MaxPressure,
	}
}

func updateToWire(u model.PumpUpdate) wireUpdate {
	w := wireUpdate{
		Name:        u.Name,
		Area:        u.Area,
		Latitude:    u.Latitude,
		Longitude:   u.Longitude,
		FlowRate:    u.FlowRate,
		Offset:      u.Offset,
		MinPressure: u.MinPressure,
		MaxPressure: u.MaxPressure,
	}
	if u.Type != nil {
		s := string(*u.Type)
		w.Type = &s
	}
	return w
}

func statisticsFromWire(w wireStatistics) model.Statistics {
	return model.Statistics{
		TotalPumps:       w.TotalPumps,
		OperationalPumps: w.OperationalPumps,
		WarningPumps:     w.WarningPumps,
		ErrorPumps:       w.ErrorPumps,
		MaintenancePumps: w.MaintenancePumps,
		AverageFlowRate:  w.AverageFlowRate,
		AveragePressure:  w.AveragePressure,
	}
}

func samplesFromWire(ws []wireSample) []model.PressureSample {
	samples := make([]model.PressureSample, 0, len(ws))
	for _, w := range ws {
		samples = append(samples, model.PressureSample{Time: w.Time, Pressure: w.Pressure})
	}
	return samples
}

func listFromWire(env wireListEnvelope) *store.ListResult {
	return &store.ListResult{
		Pumps:      pumpsFromWire(env.Pumps),
		TotalCount: env.TotalCount,
		Page:       env.Page,
		PageSize:   env.PageSize,
	}
}
