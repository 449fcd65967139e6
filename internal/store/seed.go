package store

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/vishnu-krishna/pump-master/internal/model"
)

// demoSeed describes one seed pump; expanded into a model.Pump at seed time
// so LastUpdated stays relative to the moment the store is initialized.
type demoSeed struct {
	name           string
	pumpType       model.PumpType
	area           string
	flowRate       float64
	offset         float64
	pressure       model.Pressure
	status         model.PumpStatus
	updatedAgeSecs int
}

// All demo pumps share one site location; the dashboard map centers there.
var demoLocation = model.Location{Latitude: 34.0522, Longitude: -118.2437}

var demoSeeds = []demoSeed{
	{"Pump 1", model.TypeCentrifugal, "Area A", 1000, 5, model.Pressure{Current: 150, Min: 120, Max: 180}, model.StatusOperational, 0},
	{"Pump 2", model.TypeSubmersible, "Area B", 800, 3, model.Pressure{Current: 130, Min: 100, Max: 160}, model.StatusOperational, 3600},
	{"Pump 3", model.TypeDiaphragm, "Area C", 600, 2, model.Pressure{Current: 110, Min: 80, Max: 140}, model.StatusWarning, 7200},
	{"Pump 4", model.TypeRotary, "Area D", 400, 1, model.Pressure{Current: 90, Min: 60, Max: 120}, model.StatusOperational, 1800},
	{"Pump 5", model.TypePeristaltic, "Area E", 200, 0, model.Pressure{Current: 70, Min: 40, Max: 100}, model.StatusMaintenance, 900},
	{"Pump 6", model.TypeCentrifugal, "Area F", 1200, 6, model.Pressure{Current: 170, Min: 140, Max: 200}, model.StatusOperational, 600},
	{"Pump 7", model.TypeSubmersible, "Area G", 1000, 4, model.Pressure{Current: 150, Min: 120, Max: 180}, model.StatusOperational, 300},
	{"Pump 8", model.TypeDiaphragm, "Area H", 800, 3, model.Pressure{Current: 130, Min: 100, Max: 160}, model.StatusError, 150},
	{"Pump 9", model.TypeRotary, "Area I", 600, 2, model.Pressure{Current: 110, Min: 80, Max: 140}, model.StatusOperational, 60},
	{"Pump 10", model.TypePeristaltic, "Area J", 400, 1, model.Pressure{Current: 90, Min: 60, Max: 120}, model.StatusOperational, 0},
}

// DemoPumps builds the seed dataset with ids "1".."10" in order.
func DemoPumps(now time.Time) []model.Pump {
	pumps := make([]model.Pump, 0, len(demoSeeds))
	for i, s := range demoSeeds {
		pumps = append(pumps, model.Pump{
			ID:          strconv.Itoa(i + 1),
			Name:        s.name,
			Type:        s.pumpType,
			Area:        s.area,
			Location:    demoLocation,
			FlowRate:    s.flowRate,
			Offset:      s.offset,
			Pressure:    s.pressure,
			Status:      s.status,
			LastUpdated: now.Add(-time.Duration(s.updatedAgeSecs) * time.Second),
		})
	}
	return pumps
}

// GeneratePressureHistory synthesizes one hourly pressure sample per hour of
// the window, oldest first, ending at now. The shape is a sine swell around
// 150 PSI with random jitter, clamped to [100, 200]. It is a simulation for
// charting, not telemetry; callers must tolerate non-reproducible values.
func GeneratePressureHistory(now time.Time, hours int, rng *rand.Rand) []model.PressureSample {
	if hours < 0 {
		hours = 0
	}

	samples := make([]model.PressureSample, 0, hours+1)
	for i := hours; i >= 0; i-- {
		const base = 150.0
		variation := math.Sin(float64(i)*0.5)*20 + rng.Float64()*10
		pressure := math.Round(math.Max(100, math.Min(200, base+variation)))

		samples = append(samples, model.PressureSample{
			Time:     now.Add(-time.Duration(i) * time.Hour),
			Pressure: pressure,
		})
	}
	return samples
}
