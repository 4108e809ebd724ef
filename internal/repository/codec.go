package repository

import (
	"encoding/json"

	"logistics/internal/domain"
)

// encodeWindows/decodeWindows store a shipment's time windows as a JSON
// array column; Postgres' native range/array types don't fit a list of
// inclusive [start,end] minute pairs as cleanly as jsonb does.
func encodeWindows(windows []domain.TimeWindow) ([]byte, error) {
	if windows == nil {
		windows = []domain.TimeWindow{}
	}
	return json.Marshal(windows)
}

func decodeWindows(raw []byte) ([]domain.TimeWindow, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var windows []domain.TimeWindow
	if err := json.Unmarshal(raw, &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func encodeJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func jsonUnmarshal(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}
