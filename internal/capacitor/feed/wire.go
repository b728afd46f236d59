package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

type wireBlock struct {
	Height   uint64        `json:"height"`
	Hash     string        `json:"hash,omitempty"`
	Outcomes []wireOutcome `json:"outcomes"`
}

type wireOutcome struct {
	ReceiptID  string     `json:"receipt_id,omitempty"`
	ExecutorID string     `json:"executor_id"`
	Status     wireStatus `json:"status"`
	Logs       []string   `json:"logs"`
}

// wireStatus accepts either a bare status name ("SuccessValue") or the
// node's tagged form ({"SuccessValue": "..."}).
type wireStatus domain.Status

func (s *wireStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = wireStatus(domain.StatusUnknown)
		return nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = wireStatus(domain.ParseStatus(name))
		return nil
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if len(tagged) != 1 {
		return errors.New("status: expected exactly one variant")
	}
	for name := range tagged {
		*s = wireStatus(domain.ParseStatus(name))
	}
	return nil
}

func (s wireStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// DecodeBlock parses one feed message.
func DecodeBlock(data []byte) (*domain.Block, error) {
	var wb wireBlock
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("decode block: %w: %w", sentinel.ErrInvalidInput, err)
	}
	block := &domain.Block{
		Height:   wb.Height,
		Hash:     wb.Hash,
		Outcomes: make([]domain.Outcome, 0, len(wb.Outcomes)),
	}
	for i, wo := range wb.Outcomes {
		if wo.ExecutorID == "" {
			return nil, fmt.Errorf("decode block %d: outcome %d has no executor_id: %w", wb.Height, i, sentinel.ErrInvalidInput)
		}
		block.Outcomes = append(block.Outcomes, domain.Outcome{
			ReceiptID:  wo.ReceiptID,
			ExecutorID: wo.ExecutorID,
			Status:     domain.ParseStatus(string(wo.Status)),
			Logs:       wo.Logs,
		})
	}
	return block, nil
}

// EncodeBlock renders a block in the feed wire format.
func EncodeBlock(block domain.Block) ([]byte, error) {
	wb := wireBlock{
		Height:   block.Height,
		Hash:     block.Hash,
		Outcomes: make([]wireOutcome, 0, len(block.Outcomes)),
	}
	for _, o := range block.Outcomes {
		wb.Outcomes = append(wb.Outcomes, wireOutcome{
			ReceiptID:  o.ReceiptID,
			ExecutorID: o.ExecutorID,
			Status:     wireStatus(o.Status),
			Logs:       o.Logs,
		})
	}
	return json.Marshal(wb)
}
