package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UsagePurger удаляет устаревшие записи журнала использования
type UsagePurger interface {
	CountOlderThan(ctx context.Context, before time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// UsageRetentionJob чистит журнал использования старше срока хранения
type UsageRetentionJob struct {
	repo      UsagePurger
	retention time.Duration
	dryRun    bool
	now       func() time.Time
	logger    *zap.Logger
}

// NewUsageRetentionJob создает задачу очистки журнала
func NewUsageRetentionJob(repo UsagePurger, retention time.Duration, logger *zap.Logger) *UsageRetentionJob {
	return &UsageRetentionJob{
		repo:      repo,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// WithDryRun включает режим подсчета без удаления
func (j *UsageRetentionJob) WithDryRun(dryRun bool) *UsageRetentionJob {
	j.dryRun = dryRun
	return j
}

// Name возвращает имя задачи
func (j *UsageRetentionJob) Name() string {
	return "usage_retention"
}

// Run удаляет записи старше срока хранения
func (j *UsageRetentionJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		j.logger.Debug("срок хранения журнала не задан, очистка пропущена")
		return nil
	}

	cutoff := j.now().Add(-j.retention)

	if j.dryRun {
		count, err := j.repo.CountOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("ошибка подсчета устаревших записей: %w", err)
		}
		j.logger.Info("🧪 DRY RUN: записи журнала к удалению",
			zap.Int64("count", count),
			zap.Time("cutoff", cutoff))
		return nil
	}

	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("ошибка очистки журнала: %w", err)
	}

	j.logger.Info("очистка журнала использования завершена",
		zap.Int64("deleted", deleted),
		zap.Duration("retention", j.retention))
	return nil
}
