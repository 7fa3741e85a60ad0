package store

import (
	"context"
	"fmt"
	"time"

	"voice-assistant/internal/config"
	"voice-assistant/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Usage() UsageRepository
	Ping(ctx context.Context) error
	Close() error
}

// UsageRepository интерфейс журнала обращений к шлюзу
type UsageRepository interface {
	Create(ctx context.Context, record *models.UsageRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.UsageRecord, error)
	Stats(ctx context.Context, since time.Time) ([]models.UsageStats, error)
	CountOlderThan(ctx context.Context, before time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// store реализует интерфейс Store
type store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	usage  UsageRepository
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	return &store{
		db:     db,
		logger: logger,
		usage:  NewUsageRepository(db, logger),
	}, nil
}

// Usage возвращает репозиторий журнала использования
func (s *store) Usage() UsageRepository {
	return s.usage
}

// Ping проверяет доступность базы данных
func (s *store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close закрывает пул подключений
func (s *store) Close() error {
	s.db.Close()
	s.logger.Info("подключение к базе данных закрыто")
	return nil
}
