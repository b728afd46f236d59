package feed

import (
	"context"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// Slice replays a fixed sequence of blocks.
type Slice struct {
	blocks []domain.Block
	next   int
	acked  int
}

func NewSlice(blocks ...domain.Block) *Slice {
	return &Slice{blocks: blocks}
}

func (s *Slice) Next(ctx context.Context) (*domain.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.blocks) {
		return nil, sentinel.ErrEndOfFeed
	}
	block := s.blocks[s.next]
	s.next++
	return &block, nil
}

func (s *Slice) Ack(context.Context) error {
	s.acked = s.next
	return nil
}

// Acked returns how many blocks have been acknowledged.
func (s *Slice) Acked() int {
	return s.acked
}

func (s *Slice) Close() error {
	return nil
}
