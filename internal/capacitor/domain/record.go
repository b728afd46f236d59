package domain

import "time"

// Action selects how a log record is persisted.
type Action string

const (
	ActionWrite  Action = "write"
	ActionUpdate Action = "update"
)

// DefaultCapID is used when a log record carries no cap_id.
const DefaultCapID = "None"

// Document field names injected into every persisted document.
const (
	FieldCapID        = "cap_id"
	FieldCreationDate = "cap_creation_date"
)

// LogRecord is the validated form of one structured log emitted by a contract.
type LogRecord struct {
	Type   string
	Action Action
	CapID  string
	Params map[string]any
}

// Document is the body written to the store.
type Document map[string]any

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// Mode is the write mode chosen for a record.
type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpsert Mode = "upsert"
)

// WriteOp is a fully resolved persistence instruction.
type WriteOp struct {
	Mode       Mode
	Namespace  string
	Collection string
	CapID      string
	Document   Document
	CreatedAt  time.Time
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Document:
		return Document(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
