// Package router turns raw contract logs into persistence instructions.
//
// Decode validates one raw log string into a domain.LogRecord. Route resolves
// where and how that record is stored: the namespace comes from the executor
// account, the collection from the record type, and the write mode from the
// record action.
package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// DataError describes a log that cannot be persisted because its payload is
// malformed. It is local to one log entry.
type DataError struct {
	Index  int
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("log %d: %s", e.Index, e.Reason)
}

func (e *DataError) Unwrap() error {
	return sentinel.ErrInvalidInput
}

type rawRecord struct {
	Type   *string         `json:"type"`
	Action *string         `json:"action"`
	CapID  *string         `json:"cap_id"`
	Params json.RawMessage `json:"params"`
}

// Decode parses and validates the raw log at position index.
func Decode(index int, raw string) (domain.LogRecord, error) {
	var rec rawRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.LogRecord{}, &DataError{Index: index, Reason: "not a structured record: " + err.Error()}
	}
	if rec.Type == nil || strings.TrimSpace(*rec.Type) == "" {
		return domain.LogRecord{}, &DataError{Index: index, Reason: "missing type"}
	}
	params, err := decodeParams(rec.Params)
	if err != nil {
		return domain.LogRecord{}, &DataError{Index: index, Reason: err.Error()}
	}

	out := domain.LogRecord{
		Type:   *rec.Type,
		Action: domain.ActionWrite,
		CapID:  domain.DefaultCapID,
		Params: params,
	}
	if rec.Action != nil && domain.Action(*rec.Action) == domain.ActionUpdate {
		out.Action = domain.ActionUpdate
	}
	if rec.CapID != nil {
		out.CapID = *rec.CapID
	}
	return out, nil
}

func decodeParams(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("missing params")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errors.New("params must be an object")
	}
	return normalizeMap(obj), nil
}

// normalizeMap resolves json.Number values into int64 or float64 so stores
// receive native numeric types instead of strings.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil && !math.IsInf(f, 0) {
			return f
		}
		return val.String()
	case map[string]any:
		return normalizeMap(val)
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	default:
		return val
	}
}

// Route builds the write for a record emitted by executorID. The record's params
// are deep-copied so the returned document can be mutated by the store freely.
func Route(executorID string, rec domain.LogRecord, now time.Time) domain.WriteOp {
	doc := domain.Document(rec.Params).Clone()
	if doc == nil {
		doc = domain.Document{}
	}
	doc[domain.FieldCreationDate] = now
	doc[domain.FieldCapID] = rec.CapID

	mode := domain.ModeInsert
	if rec.Action == domain.ActionUpdate {
		mode = domain.ModeUpsert
	}
	return domain.WriteOp{
		Mode:       mode,
		Namespace:  domain.Namespace(executorID),
		Collection: rec.Type,
		CapID:      rec.CapID,
		Document:   doc,
		CreatedAt:  now,
	}
}
