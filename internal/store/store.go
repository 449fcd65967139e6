// Package store defines the backing-store contract behind the pump data
// access facade and provides the local persistent implementation. The remote
// implementation of the same contract lives in internal/remote.
package store

import (
	"context"
	"errors"

	"github.com/vishnu-krishna/pump-master/internal/model"
)

// ErrNotFound is returned by operations that target a specific pump when no
// record matches. Lookups (GetByID, Update, SetStatus) report a miss through
// a nil record instead; only operations without a record result use this.
var ErrNotFound = errors.New("pump not found")

// ErrInvalidBounds is returned when an update would leave a record with
// minPressure >= maxPressure. Single-bound edits are checked against the
// stored other half, so this can fire even when the request body alone
// looks consistent.
var ErrInvalidBounds = errors.New("minPressure must be less than maxPressure")

// ExportFormat selects the wire format of an export download.
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportExcel ExportFormat = "excel"
)

// ListOptions narrows a GetAll call. Zero values mean "no constraint"; a
// zero PageSize disables pagination entirely.
type ListOptions struct {
	Type     string
	Status   string
	Area     string
	Search   string
	Page     int
	PageSize int
}

// ListResult is a page of pumps plus the metadata remote backends report.
// For unpaginated calls TotalCount equals len(Pumps).
type ListResult struct {
	Pumps      []model.Pump `json:"pumps"`
	TotalCount int          `json:"totalCount"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

// ExportResult is a rendered export document ready to be served.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Store is the contract both backing stores satisfy. Callers must not be
// able to tell which implementation answered: records come back in the same
// shape either way, and a missing pump is a nil record, never an error.
type Store interface {
	GetAll(ctx context.Context, opts ListOptions) (*ListResult, error)
	GetByID(ctx context.Context, id string) (*model.Pump, error)
	GetByArea(ctx context.Context, area string) ([]model.Pump, error)
	Create(ctx context.Context, form model.PumpFormData) (*model.Pump, error)
	Update(ctx context.Context, id string, upd model.PumpUpdate) (*model.Pump, error)
	SetStatus(ctx context.Context, id string, status model.PumpStatus) (*model.Pump, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (*model.Statistics, error)
	PressureHistory(ctx context.Context, id string, hours int) ([]model.PressureSample, error)
	Export(ctx context.Context, format ExportFormat) (*ExportResult, error)
	ResetToDemo(ctx context.Context) error
}
