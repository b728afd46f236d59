package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/metrics"
	"capacitor/internal/capacitor/ports/mocks"
	"capacitor/pkg/platform/sentinel"
)

type WriterSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockDocumentStore
	metrics *metrics.Metrics
	writer  *Writer
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterSuite))
}

func (s *WriterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockDocumentStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	w, err := New(s.store,
		WithRetries(2),
		WithBackoff(time.Millisecond, time.Millisecond),
		WithTimeout(time.Second),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.writer = w
}

func insertOp() domain.WriteOp {
	return domain.WriteOp{
		Mode:       domain.ModeInsert,
		Namespace:  "alice_near",
		Collection: "post",
		CapID:      "None",
		Document:   domain.Document{"text": "hi", "cap_id": "None"},
	}
}

func (s *WriterSuite) TestNew() {
	s.Run("nil store is rejected", func() {
		w, err := New(nil)
		s.Require().Error(err)
		s.Nil(w)
	})
}

func (s *WriterSuite) TestApplyInsert() {
	op := insertOp()
	s.store.EXPECT().
		InsertOne(gomock.Any(), "alice_near", "post", op.Document).
		Return(nil)

	s.Require().NoError(s.writer.Apply(context.Background(), op))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.LogsPersisted.WithLabelValues("insert")))
	s.Equal(0.0, promtest.ToFloat64(s.metrics.WriteRetries))
}

func (s *WriterSuite) TestApplyUpsert() {
	op := domain.WriteOp{
		Mode:       domain.ModeUpsert,
		Namespace:  "alice_near",
		Collection: "profile",
		CapID:      "u1",
		Document:   domain.Document{"name": "A", "cap_id": "u1"},
	}
	s.store.EXPECT().
		UpsertByCapID(gomock.Any(), "alice_near", "profile", "u1", op.Document).
		Return(nil)

	s.Require().NoError(s.writer.Apply(context.Background(), op))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.LogsPersisted.WithLabelValues("upsert")))
}

func (s *WriterSuite) TestApplyRetriesTransientErrors() {
	transient := errors.New("connection reset")
	gomock.InOrder(
		s.store.EXPECT().InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(transient),
		s.store.EXPECT().InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)

	s.Require().NoError(s.writer.Apply(context.Background(), insertOp()))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.WriteRetries))
}

func (s *WriterSuite) TestApplyGivesUpAfterRetries() {
	transient := errors.New("connection reset")
	s.store.EXPECT().
		InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(transient).
		Times(3)

	err := s.writer.Apply(context.Background(), insertOp())
	s.Require().Error(err)
	s.ErrorIs(err, transient)
	s.Contains(err.Error(), "after 3 attempt(s)")
}

func (s *WriterSuite) TestApplyDoesNotRetryRejectedWrites() {
	rejected := errors.Join(errors.New("duplicate key"), sentinel.ErrRejected)
	s.store.EXPECT().
		InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(rejected).
		Times(1)

	err := s.writer.Apply(context.Background(), insertOp())
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrRejected)
	s.Equal(0.0, promtest.ToFloat64(s.metrics.WriteRetries))
}

func (s *WriterSuite) TestApplyStopsOnCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	s.store.EXPECT().
		InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ domain.Document) error {
			cancel()
			return ctx.Err()
		}).
		Times(1)

	err := s.writer.Apply(ctx, insertOp())
	s.Require().Error(err)
	s.ErrorIs(err, context.Canceled)
}

func (s *WriterSuite) TestApplyUnknownModeIsRejected() {
	op := insertOp()
	op.Mode = "delete"

	err := s.writer.Apply(context.Background(), op)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrRejected)
}

func (s *WriterSuite) TestApplyBoundsEachAttempt() {
	w, err := New(s.store, WithRetries(0), WithTimeout(10*time.Millisecond))
	s.Require().NoError(err)

	s.store.EXPECT().
		InsertOne(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ domain.Document) error {
			<-ctx.Done()
			return ctx.Err()
		})

	err = w.Apply(context.Background(), insertOp())
	s.Require().Error(err)
	s.ErrorIs(err, context.DeadlineExceeded)
}
