package main

import (
	"context"
	"flag"
	"log"
	"time"

	"voice-assistant/internal/cache"
	"voice-assistant/internal/config"
	"voice-assistant/internal/scheduler"
	"voice-assistant/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		retention  = flag.Duration("retention", 0, "Срок хранения журнала (0 = USAGE_RETENTION из окружения)")
		dryRun     = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
		purgeCache = flag.Bool("cache", false, "Также удалить весь кеш синтезированного аудио")
		showStats  = flag.Bool("stats", false, "Вывести статистику использования за срок хранения")
		recent     = flag.Int("recent", 0, "Вывести N последних записей журнала")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	if *retention <= 0 {
		*retention = cfg.App.UsageRetention
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.Database.Enabled() {
		if err := cleanupUsage(ctx, &cfg.Database, *retention, *dryRun, *showStats, *recent, logger); err != nil {
			logger.Fatal("Ошибка очистки журнала", zap.Error(err))
		}
	} else {
		logger.Info("Журнал использования не настроен, очистка пропущена")
	}

	if *purgeCache {
		if err := cleanupCache(ctx, cfg.Cache, *dryRun, logger); err != nil {
			logger.Fatal("Ошибка очистки кеша", zap.Error(err))
		}
	}

	logger.Info("Очистка завершена успешно")
}

func cleanupUsage(ctx context.Context, dbCfg *config.DatabaseConfig, retention time.Duration, dryRun, showStats bool, recent int, logger *zap.Logger) error {
	db, err := store.NewStore(dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if showStats {
		stats, err := db.Usage().Stats(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		for _, s := range stats {
			logger.Info("Статистика использования",
				zap.String("operation", s.Operation),
				zap.Int64("total", s.Total),
				zap.Int64("failed", s.Failed),
				zap.Int64("characters", s.Characters),
				zap.Int64("audio_bytes", s.AudioBytes))
		}
	}

	if recent > 0 {
		records, err := db.Usage().ListRecent(ctx, recent)
		if err != nil {
			return err
		}
		for _, r := range records {
			logger.Info("Запись журнала",
				zap.Time("created_at", r.CreatedAt),
				zap.String("operation", r.Operation),
				zap.String("status", r.Status),
				zap.String("voice_id", r.VoiceID),
				zap.Int64("duration_ms", r.DurationMS))
		}
	}

	logger.Info("Начинаем очистку журнала использования",
		zap.Duration("retention", retention),
		zap.Bool("dry_run", dryRun))

	job := scheduler.NewUsageRetentionJob(db.Usage(), retention, logger).WithDryRun(dryRun)
	return job.Run(ctx)
}

func cleanupCache(ctx context.Context, cacheCfg config.CacheConfig, dryRun bool, logger *zap.Logger) error {
	if !cacheCfg.Enabled() {
		logger.Info("Кеш аудио не настроен, очистка пропущена")
		return nil
	}

	if dryRun {
		logger.Info("DRY RUN: кеш аудио будет очищен", zap.String("addr", cacheCfg.Addr))
		return nil
	}

	audioCache, err := cache.New(ctx, cacheCfg, logger)
	if err != nil {
		return err
	}
	defer audioCache.Close()

	deleted, err := audioCache.CleanAllAudio(ctx)
	if err != nil {
		return err
	}

	logger.Info("Кеш аудио очищен", zap.Int64("deleted", deleted))
	return nil
}
