// Package outbox публикует в брокер события, записанные в outbox вместе с бизнес-транзакцией.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout      = 3 * time.Second
	defaultPublishTimeout      = 5 * time.Second
	defaultIdleDelay           = time.Second
	defaultBatchSize      uint = 100
	defaultWorkers        uint = 4
)

// Relay забирает события из outbox и публикует их в брокер.
type Relay struct {
	publisher Publisher
	svs       Servicer
	l         *logrus.Entry
	batchSize uint
	workers   uint
	idleDelay time.Duration
}

func NewRelay(svs Servicer, publisher Publisher, l *logrus.Logger) *Relay {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "outbox",
		"module":    "relay",
	})

	return &Relay{
		publisher: publisher,
		svs:       svs,
		l:         loggerEntry,
		batchSize: defaultBatchSize,
		workers:   defaultWorkers,
		idleDelay: defaultIdleDelay,
	}
}

// SetBatchSize устанавливает кол-во событий, забираемых за одну итерацию.
func (r *Relay) SetBatchSize(size uint) *Relay {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

// SetWorkers устанавливает кол-во параллельных публикаторов.
func (r *Relay) SetWorkers(workers uint) *Relay {
	if workers > 0 {
		r.workers = workers
	}
	return r
}

// Run публикует события в бесконечном цикле до отмены контекста.
//
// Алгоритм работы:
//  1. В каждой итерации забирает через сервисный слой пачку pending событий (SetBatchSize).
//     Забранные события переходят в processing и не достанутся другой реплике.
//  2. N воркеров (SetWorkers) публикуют события в брокер, routing key = тип события.
//  3. Результаты отправляются через сервисный слой: успешные помечаются published, неудачные
//     возвращаются в pending до исчерпания попыток.
func (r *Relay) Run(ctx context.Context) {
	r.l.WithFields(logrus.Fields{
		"batchSize": r.batchSize,
		"workers":   r.workers,
	}).Info("Starting")

	for {
		err := r.process(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNoEvents) && ctx.Err() == nil {
			r.l.WithError(err).Error("process error")
		}
		select {
		case <-ctx.Done():
			r.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(idleDelay(r.idleDelay)):
		}
	}
}

// process выполняет одну итерацию. Возвращает ErrNoEvents, если публиковать нечего.
func (r *Relay) process(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err() //nolint:wrapcheck
	}
	events, err := r.claim(ctx)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	results := r.runWorkers(ctx, events)
	if len(results) == 0 {
		return nil
	}

	// отчет пишем даже после отмены ctx, иначе события останутся в processing.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultServiceTimeout)
	defer cancel()

	if reportErr := r.svs.ReportResults(reqCtx, results); reportErr != nil {
		return fmt.Errorf("process: %w", reportErr)
	}
	return nil
}

func (r *Relay) claim(ctx context.Context) ([]domain.OutboxEvent, error) {
	claimCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	events, err := r.svs.ClaimPending(claimCtx, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	return events, nil
}

// runWorkers fan-out публикации по воркерам и сбор результатов.
func (r *Relay) runWorkers(ctx context.Context, events []domain.OutboxEvent) []service.PublishResult {
	taskCh := make(chan *domain.OutboxEvent, len(events))
	for i := range events {
		taskCh <- &events[i]
	}
	close(taskCh)

	resultCh := make(chan service.PublishResult, len(events))

	wg := new(sync.WaitGroup)
	for i := range r.workers {
		wg.Add(1)
		go r.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()
	close(resultCh)

	results := make([]service.PublishResult, 0, len(events))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (r *Relay) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan *domain.OutboxEvent,
	resultCh chan<- service.PublishResult,
) {
	defer wg.Done()

	for task := range taskCh {
		l := r.l.WithFields(logrus.Fields{
			"worker":    workerID,
			"eventID":   task.ID,
			"eventType": task.EventType,
			"attempt":   task.RetryCount + 1,
		})
		if ctx.Err() != nil {
			// событие вернется в pending и будет опубликовано следующей итерацией.
			resultCh <- service.PublishResult{EventID: task.ID, Error: ctx.Err()}
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		err := r.publisher.Publish(pubCtx, task.EventType, task.MessageID.String(), task.Payload)
		cancel()

		if err != nil {
			l.WithError(err).Error("publish event")
		} else {
			l.Debug("published")
		}
		resultCh <- service.PublishResult{EventID: task.ID, Error: err}
	}
}
