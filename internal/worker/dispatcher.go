package worker

import (
	"context"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Pause after a failed fetch before polling the transport again.
const fetchRetryPause = 5 * time.Second

//go:generate mockgen -source=dispatcher.go -destination=../mocks/worker/mock.go -package=mocks

type consumer interface {
	Fetch(ctx context.Context) (kafkago.Message, error)
	Commit(ctx context.Context, msg kafkago.Message) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, data []byte, strategy retry.Strategy) error
}

// Dispatcher runs the consumption loops for the dispatch and retry
// destinations. Each loop processes one intent fully before fetching the
// next and commits only after the handler is done, so an intent in flight
// during a crash is redelivered.
type Dispatcher struct {
	dispatch consumer
	retry    consumer
	handler  messageHandler
}

func NewDispatcher(dispatch, retry consumer, handler messageHandler) *Dispatcher {
	return &Dispatcher{
		dispatch: dispatch,
		retry:    retry,
		handler:  handler,
	}
}

// Run blocks until ctx is cancelled and both consumption loops have exited.
func (d *Dispatcher) Run(ctx context.Context, strategy retry.Strategy) {
	var wg sync.WaitGroup

	wg.Add(2)
	go d.consume(ctx, &wg, "dispatch", d.dispatch, strategy)
	go d.consume(ctx, &wg, "retry", d.retry, strategy)

	wg.Wait()
	zlog.Logger.Info().Msg("dispatch worker stopped")
}

func (d *Dispatcher) consume(ctx context.Context, wg *sync.WaitGroup, name string, c consumer, strategy retry.Strategy) {
	defer wg.Done()

	zlog.Logger.Info().Str("consumer", name).Msg("consumption loop started")

	for {
		msg, err := c.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				zlog.Logger.Info().Str("consumer", name).Msg("consumption loop shutting down")
				return
			}

			zlog.Logger.Error().Err(err).Str("consumer", name).Msg("failed to fetch message")

			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryPause):
			}
			continue
		}

		if err := d.handler.HandleMessage(ctx, msg.Value, strategy); err != nil {
			// Left uncommitted on purpose: the transport redelivers it.
			zlog.Logger.Warn().Err(err).Str("consumer", name).Msg("intent not committed, will be redelivered")
			continue
		}

		if err := c.Commit(ctx, msg); err != nil {
			zlog.Logger.Error().Err(err).Str("consumer", name).Msg("failed to commit message")
		}
	}
}
