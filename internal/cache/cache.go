package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-assistant/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "voice-assistant:"

// AudioCache хранит синтезированное аудио в Redis
type AudioCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New подключается к Redis и проверяет соединение
func New(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*AudioCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("не удалось подключиться к кешу %s: %w", cfg.Addr, err)
	}

	logger.Info("подключение к кешу аудио установлено", zap.String("addr", cfg.Addr))

	return &AudioCache{rdb: rdb, logger: logger}, nil
}

// GetAudio возвращает аудио по ключу; found=false при промахе
func (c *AudioCache) GetAudio(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из кеша: %w", err)
	}
	return data, true, nil
}

// SaveAudio сохраняет аудио с ограниченным временем жизни
func (c *AudioCache) SaveAudio(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в кеш: %w", err)
	}
	return nil
}

// CleanAllAudio удаляет все закешированное аудио и возвращает число ключей
func (c *AudioCache) CleanAllAudio(ctx context.Context) (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"tts:*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, fmt.Errorf("ошибка удаления ключа %s: %w", iter.Val(), err)
		}
		deleted += n
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("ошибка обхода ключей кеша: %w", err)
	}
	return deleted, nil
}

// Ping проверяет доступность Redis
func (c *AudioCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает соединение
func (c *AudioCache) Close() error {
	return c.rdb.Close()
}
