package worker

import (
	"context"
	"fmt"
	"taskboard/internal/logger"
	"time"

	"go.uber.org/zap"
)

const (
	defaultInterval  = 5 * time.Minute
	defaultBatchSize = 100
	// за один проход не больше стольких пачек, остаток доберёт следующий тик
	maxBatchesPerCheck = 50
)

type OverdueMarker interface {
	MarkOverdue(context.Context, time.Time, int) (int64, error)
}

type OverdueWorker struct {
	repo      OverdueMarker
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewOverdueWorker(repo OverdueMarker, interval time.Duration, batchSize int) *OverdueWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &OverdueWorker{
		repo:      repo,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка запущена", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка задач на просроченность", zap.Time("started_at", w.now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: ошибка проверки задач", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

// Check помечает просроченные задачи пачками и возвращает, сколько пометил
func (w *OverdueWorker) Check(ctx context.Context) (int64, error) {
	start := time.Now()
	now := w.now()

	var total int64
	for batch := 0; batch < maxBatchesPerCheck; batch++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		marked, err := w.repo.MarkOverdue(ctx, now, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("пометка просроченных задач: %w", err)
		}
		total += marked

		if marked < int64(w.batchSize) {
			break
		}
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int64("overdue", total),
	)
	return total, nil
}
