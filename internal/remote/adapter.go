package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// Adapter satisfies store.Store against the upstream REST resource. Every
// call goes through the transport Client, so auth, correlation ids and the
// 401 refresh-retry apply uniformly.
type Adapter struct {
	client *Client
}

// NewAdapter creates an adapter over the given transport.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// GetAll lists pumps. The upstream may answer with a bare array or a
// paginated envelope; both decode into the same ListResult.
func (a *Adapter) GetAll(ctx context.Context, opts store.ListOptions) (*store.ListResult, error) {
	query := url.Values{}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Area != "" {
		query.Set("area", opts.Area)
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(resp.body)
}

// decodeList accepts either response shape the backend is known to produce.
func decodeList(body []byte) (*store.ListResult, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var pumps []wirePump
		if err := json.Unmarshal(body, &pumps); err != nil {
			return nil, fmt.Errorf("decode pump list: %w", err)
		}
		converted := pumpsFromWire(pumps)
		return &store.ListResult{
			Pumps:      converted,
			TotalCount: len(converted),
			Page:       1,
			PageSize:   len(converted),
		}, nil
	}

	var env wireListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode pump list envelope: %w", err)
	}
	result := listFromWire(env)
	if result.TotalCount == 0 {
		result.TotalCount = len(result.Pumps)
	}
	return result, nil
}

// GetByID fetches one pump; an upstream 404 is a nil record, not an error.
func (a *Adapter) GetByID(ctx context.Context, id string) (*model.Pump, error) {
	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps/"+url.PathEscape(id), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodePump(resp.body)
}

// GetByArea lists the pumps of one area.
func (a *Adapter) GetByArea(ctx context.Context, area string) ([]model.Pump, error) {
	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps/area/"+url.PathEscape(area), nil, nil)
	if err != nil {
		return nil, err
	}
	var pumps []wirePump
	if err := json.Unmarshal(resp.body, &pumps); err != nil {
		return nil, fmt.Errorf("decode area pump list: %w", err)
	}
	return pumpsFromWire(pumps), nil
}

// Create submits a new pump.
func (a *Adapter) Create(ctx context.Context, form model.PumpFormData) (*model.Pump, error) {
	resp, err := a.client.do(ctx, http.MethodPost, "/api/pumps", nil, formToWire(form))
	if err != nil {
		return nil, err
	}
	return decodePump(resp.body)
}

// Update submits a partial edit; an upstream 404 is a nil record.
func (a *Adapter) Update(ctx context.Context, id string, upd model.PumpUpdate) (*model.Pump, error) {
	resp, err := a.client.do(ctx, http.MethodPut, "/api/pumps/"+url.PathEscape(id), nil, updateToWire(upd))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodePump(resp.body)
}

// SetStatus overrides the pump's status; an upstream 404 is a nil record.
func (a *Adapter) SetStatus(ctx context.Context, id string, status model.PumpStatus) (*model.Pump, error) {
	body := map[string]string{"Status": string(status)}
	resp, err := a.client.do(ctx, http.MethodPatch, "/api/pumps/"+url.PathEscape(id)+"/status", nil, body)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodePump(resp.body)
}

// Delete removes a pump. Modeled for contract completeness; no dashboard
// page calls it.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.do(ctx, http.MethodDelete, "/api/pumps/"+url.PathEscape(id), nil, nil)
	if isNotFound(err) {
		return store.ErrNotFound
	}
	return err
}

// Statistics fetches the aggregate view.
func (a *Adapter) Statistics(ctx context.Context) (*model.Statistics, error) {
	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps/statistics", nil, nil)
	if err != nil {
		return nil, err
	}
	var w wireStatistics
	if err := json.Unmarshal(resp.body, &w); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	stats := statisticsFromWire(w)
	return &stats, nil
}

// PressureHistory fetches the measured series for the window.
func (a *Adapter) PressureHistory(ctx context.Context, id string, hours int) ([]model.PressureSample, error) {
	query := url.Values{"hours": []string{strconv.Itoa(hours)}}
	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps/"+url.PathEscape(id)+"/pressure-history", query, nil)
	if err != nil {
		return nil, err
	}
	var ws []wireSample
	if err := json.Unmarshal(resp.body, &ws); err != nil {
		return nil, fmt.Errorf("decode pressure history: %w", err)
	}
	return samplesFromWire(ws), nil
}

// Export streams the upstream export blob through untouched.
func (a *Adapter) Export(ctx context.Context, format store.ExportFormat) (*store.ExportResult, error) {
	query := url.Values{"format": []string{string(format)}}
	resp, err := a.client.do(ctx, http.MethodGet, "/api/pumps/export", query, nil)
	if err != nil {
		return nil, err
	}

	result := &store.ExportResult{
		Data:        resp.body,
		ContentType: resp.header.Get("Content-Type"),
	}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		result.Filename = params["filename"]
	}
	return result, nil
}

// ResetToDemo is meaningless against a live backend; it only exists on the
// local store.
func (a *Adapter) ResetToDemo(context.Context) error {
	return nil
}

func decodePump(body []byte) (*model.Pump, error) {
	var w wirePump
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode pump: %w", err)
	}
	pump := pumpFromWire(w)
	return &pump, nil
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}
