package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"evsense/backend/services/dashboard-service/internal/models"
)

// DefaultHistoryLimit is used when FetchHistory gets a non-positive limit.
const DefaultHistoryLimit = 100

var requiredLatestKeys = []string{"voltage", "current", "temperature", "latitude", "longitude"}

// SensorClient reads the sensor backend.
type SensorClient struct {
	base *BaseClient
}

// NewSensorClient reads the backend at baseURL, for example http://localhost:5000.
func NewSensorClient(baseURL string, httpClient HTTPDoer) *SensorClient {
	return &SensorClient{base: NewBaseClient(baseURL, httpClient)}
}

// FetchLatest returns the newest sample. A status marker such as {"status":"no data yet"}
// or a payload missing a required reading yields models.ErrEmptyResult.
func (c *SensorClient) FetchLatest(ctx context.Context) (models.SensorSample, error) {
	resp, err := c.base.get(ctx, "/latest")
	if err != nil {
		return models.SensorSample{}, err
	}
	if !resp.ok() {
		return models.SensorSample{}, resp.statusError()
	}
	body := resp.body

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return models.SensorSample{}, fmt.Errorf("decode latest: %w", err)
	}
	if _, ok := fields["status"]; ok {
		return models.SensorSample{}, models.ErrEmptyResult
	}
	for _, key := range requiredLatestKeys {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return models.SensorSample{}, models.ErrEmptyResult
		}
	}

	var sample models.SensorSample
	if err := json.Unmarshal(body, &sample); err != nil {
		return models.SensorSample{}, models.ErrEmptyResult
	}
	return sample, nil
}

// FetchHistory returns stored samples in backend order. Any 2xx payload other than
// {"status":"success","data":[...]} yields an empty slice.
func (c *SensorClient) FetchHistory(ctx context.Context, limit int) ([]models.HistoricalSample, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	resp, err := c.base.get(ctx, fmt.Sprintf("/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.statusError()
	}
	body := resp.body

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []models.HistoricalSample{}, nil
	}
	if envelope.Status != "success" || len(envelope.Data) == 0 || envelope.Data[0] != '[' {
		return []models.HistoricalSample{}, nil
	}

	samples := []models.HistoricalSample{}
	if err := json.Unmarshal(envelope.Data, &samples); err != nil {
		return []models.HistoricalSample{}, nil
	}
	return samples, nil
}
