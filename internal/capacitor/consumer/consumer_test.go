package consumer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/suite"

	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/engine"
	"capacitor/internal/capacitor/feed"
	"capacitor/internal/capacitor/store/memory"
	"capacitor/internal/capacitor/writer"
	"capacitor/pkg/platform/sentinel"
)

type ConsumerSuite struct {
	suite.Suite
	logs      *bytes.Buffer
	logger    *slog.Logger
	documents *memory.Documents
	engine    *engine.Engine
}

func TestConsumerSuite(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupTest() {
	s.logs = &bytes.Buffer{}
	s.logger = slog.New(slog.NewJSONHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s.documents = memory.NewDocuments()

	w, err := writer.New(s.documents)
	s.Require().NoError(err)
	s.engine, err = engine.New(memory.NewAllowlist("alice.near"), w, engine.WithLogger(s.logger))
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Load(context.Background()))
}

func outcome(executor string, status domain.Status, logs ...string) domain.Outcome {
	return domain.Outcome{ReceiptID: "r-" + executor, ExecutorID: executor, Status: status, Logs: logs}
}

func (s *ConsumerSuite) TestNew() {
	_, err := New(nil, s.engine)
	s.Error(err)
	_, err = New(feed.NewSlice(), nil)
	s.Error(err)
}

func (s *ConsumerSuite) TestRunDrainsFeed() {
	src := feed.NewSlice(
		domain.Block{Height: 1, Outcomes: []domain.Outcome{
			outcome("alice.near", domain.StatusSuccessValue, `{"type":"post","params":{"text":"hi"}}`),
			outcome("bob.near", domain.StatusSuccessValue, `{"type":"post","params":{"text":"hi"}}`),
		}},
		domain.Block{Height: 2, Outcomes: []domain.Outcome{
			outcome("alice.near", domain.StatusFailure, `{"type":"post","params":{"text":"no"}}`),
			outcome("alice.near", domain.StatusSuccessReceiptID,
				`{"type":"profile","action":"update","cap_id":"u1","params":{"name":"A"}}`,
				`{"type":"profile","action":"update","cap_id":"u1","params":{"name":"B"}}`,
			),
		}},
	)

	c, err := New(src, s.engine, WithLogger(s.logger))
	s.Require().NoError(err)
	s.Require().NoError(c.Run(context.Background()))

	s.Equal(Stats{Blocks: 2, Outcomes: 4, Eligible: 2, Persisted: 3}, c.Stats())
	s.Equal(2, src.Acked())
	s.Len(s.documents.Find("alice_near", "post"), 1)
	s.Len(s.documents.Find("alice_near", "profile"), 1)
	s.Empty(s.documents.Find("bob_near", "post"))
}

func (s *ConsumerSuite) TestMalformedLogsAreReportedAndSkipped() {
	src := feed.NewSlice(domain.Block{Height: 9, Outcomes: []domain.Outcome{
		outcome("alice.near", domain.StatusSuccessValue, `oops`, `{"type":"post","params":{}}`),
	}})

	c, err := New(src, s.engine, WithLogger(s.logger))
	s.Require().NoError(err)
	s.Require().NoError(c.Run(context.Background()))

	s.Equal(Stats{Blocks: 1, Outcomes: 1, Eligible: 1, Persisted: 1, Rejected: 1}, c.Stats())
	s.Contains(s.logs.String(), `"msg":"malformed log skipped"`)
	s.Contains(s.logs.String(), `"executor_id":"alice.near"`)
	s.Contains(s.logs.String(), `"log_index":0`)
	s.Contains(s.logs.String(), `"block_height":9`)
}

// scriptedSource returns queued results in order, then ends the feed.
type scriptedSource struct {
	results []result
	acks    int
}

type result struct {
	block *domain.Block
	err   error
}

func (s *scriptedSource) Next(ctx context.Context) (*domain.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.results) == 0 {
		return nil, sentinel.ErrEndOfFeed
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.block, r.err
}

func (s *scriptedSource) Ack(context.Context) error {
	s.acks++
	return nil
}

func (s *scriptedSource) Close() error { return nil }

func (s *ConsumerSuite) TestInvalidMessagesAreAckedAndSkipped() {
	src := &scriptedSource{results: []result{
		{err: errors.Join(errors.New("bad json"), sentinel.ErrInvalidInput)},
		{block: &domain.Block{Height: 2}},
	}}

	c, err := New(src, s.engine, WithLogger(s.logger))
	s.Require().NoError(err)
	s.Require().NoError(c.Run(context.Background()))

	s.Equal(2, src.acks)
	s.Equal(Stats{Blocks: 1, InvalidBlocks: 1}, c.Stats())
}

func (s *ConsumerSuite) TestOversizedFileLineIsSkipped() {
	huge := `{"height":1,"hash":"` + strings.Repeat("x", feed.MaxLineSize) + `","outcomes":[]}`
	good := `{"height":2,"outcomes":[{"executor_id":"alice.near","status":"SuccessValue","logs":["{\"type\":\"post\",\"params\":{\"text\":\"hi\"}}"]}]}`
	src := feed.NewReader(strings.NewReader(huge + "\n" + good + "\n"))

	c, err := New(src, s.engine,
		WithLogger(s.logger),
		WithFeedBackoff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 1)
		}),
	)
	s.Require().NoError(err)
	s.Require().NoError(c.Run(context.Background()))

	s.Equal(Stats{Blocks: 1, InvalidBlocks: 1, Outcomes: 1, Eligible: 1, Persisted: 1}, c.Stats())
	s.Len(s.documents.Find("alice_near", "post"), 1)
}

func (s *ConsumerSuite) TestTransientFeedErrorsAreRetried() {
	src := &scriptedSource{results: []result{
		{err: errors.New("broker unavailable")},
		{block: &domain.Block{Height: 1}},
	}}

	c, err := New(src, s.engine,
		WithLogger(s.logger),
		WithFeedBackoff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }),
	)
	s.Require().NoError(err)
	s.Require().NoError(c.Run(context.Background()))

	s.Equal(1, c.Stats().Blocks)
	s.Contains(s.logs.String(), "feed read failed, retrying")
}

func (s *ConsumerSuite) TestFeedErrorsOutlastingRetriesStopTheRun() {
	boom := errors.New("broker unavailable")
	src := &scriptedSource{results: []result{{err: boom}, {err: boom}, {err: boom}}}

	c, err := New(src, s.engine,
		WithLogger(s.logger),
		WithFeedBackoff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 1)
		}),
	)
	s.Require().NoError(err)
	s.Require().ErrorIs(c.Run(context.Background()), boom)
}

func (s *ConsumerSuite) TestCancellationLeavesBlockUnacked() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := feed.NewSlice(domain.Block{Height: 1})
	c, err := New(src, s.engine, WithLogger(s.logger))
	s.Require().NoError(err)

	s.Require().ErrorIs(c.Run(ctx), context.Canceled)
	s.Zero(src.Acked())
}
