package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-assistant/internal/ai"
	"voice-assistant/internal/cache"
	"voice-assistant/internal/config"
	"voice-assistant/internal/gateway"
	"voice-assistant/internal/metrics"
	"voice-assistant/internal/migrations"
	"voice-assistant/internal/scheduler"
	"voice-assistant/internal/store"
	"voice-assistant/internal/tts"
	"voice-assistant/internal/voice"
	"voice-assistant/internal/whisper"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Инициализация логгера
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := initLogger(level)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск голосового шлюза")

	// Загрузка конфигурации. Без ключа провайдера шлюз не стартует.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}
	level.SetLevel(cfg.App.GetLogLevel().Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Синтез речи
	elevenLabs := tts.NewElevenLabsService(cfg.ElevenLabs, logger)
	var ttsService tts.TTSService = elevenLabs

	if cfg.Cache.Enabled() {
		audioCache, err := cache.New(ctx, cfg.Cache, logger)
		if err != nil {
			logger.Fatal("ошибка подключения к кешу аудио", zap.Error(err))
		}
		defer audioCache.Close()

		ttsService = tts.NewCachedService(elevenLabs, audioCache, elevenLabs.CacheKey, cfg.Cache.TTL, logger)
		metricsHandler.AddCheck("cache", audioCache.Ping)
		logger.Info("кеш синтезированного аудио включен", zap.Duration("ttl", cfg.Cache.TTL))
	}

	// Распознавание речи
	var transcriber voice.Transcriber = voice.PlaceholderTranscriber{}
	if cfg.Transcription.Provider == "whisper" {
		whisperClient := whisper.NewClient(cfg.Transcription.WhisperAPIURL, logger)
		transcriber = whisperClient
		metricsHandler.AddCheck("whisper", whisperClient.HealthCheck)
		logger.Info("распознавание через Whisper", zap.String("url", cfg.Transcription.WhisperAPIURL))
	} else {
		logger.Warn("распознавание речи не подключено, используется заглушка")
	}

	// Диалоговый бэкенд
	logger.Info("конфигурация AI",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model))

	aiClient, err := ai.NewAIClient(cfg.AI, logger)
	if err != nil {
		logger.Fatal("ошибка создания AI клиента", zap.Error(err))
	}

	// Журнал использования
	var usage voice.UsageRecorder
	taskScheduler := scheduler.NewScheduler(logger)

	if cfg.Database.Enabled() {
		if err := migrations.RunMigrations(&cfg.Database, logger); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}

		db, err := store.NewStore(&cfg.Database, logger)
		if err != nil {
			logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
		}
		defer db.Close()

		usage = db.Usage()
		metricsHandler.AddCheck("database", db.Ping)
		taskScheduler.AddJob(scheduler.NewUsageRetentionJob(db.Usage(), cfg.App.UsageRetention, logger))
	} else {
		logger.Info("журнал использования отключен (DB_HOST не задан)")
	}

	voiceService := voice.NewService(voice.Options{
		Transcriber:     transcriber,
		TTS:             ttsService,
		AI:              aiClient,
		Usage:           usage,
		Metrics:         metricsSystem,
		ProviderTimeout: cfg.HTTP.ProviderTimeout,
		SystemPrompt:    cfg.AI.SystemPrompt,
		Generation: ai.GenerationOptions{
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		},
	}, logger)

	handler := gateway.NewHandler(voiceService, cfg.HTTP.MaxUploadBytes, logger)
	router := gateway.NewRouter(handler, metricsHandler, metricsSystem, cfg.HTTP, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск планировщика задач (раз в час)
	if taskScheduler.Len() > 0 {
		go taskScheduler.Start(ctx, time.Hour)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("голосовой шлюз запущен и готов к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
		zap.String("env", cfg.App.Env),
	)

	// Ожидание сигнала завершения
	select {
	case <-sigChan:
		logger.Info("получен сигнал завершения, начинаем graceful shutdown")
	case err := <-serverErr:
		logger.Error("ошибка HTTP сервера", zap.Error(err))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("голосовой шлюз остановлен")
}

// initLogger инициализирует логгер
func initLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if os.Getenv("APP_ENV") == "production" {
		config = zap.NewProductionConfig()
	}
	config.Level = level
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}
