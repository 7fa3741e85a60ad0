package store

import (
	"context"
	"fmt"
	"time"

	"voice-assistant/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// usageRepository реализует UsageRepository
type usageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewUsageRepository создает новый репозиторий журнала использования
func NewUsageRepository(db *pgxpool.Pool, logger *zap.Logger) UsageRepository {
	return &usageRepository{
		db:     db,
		logger: logger,
	}
}

// Create добавляет запись в журнал
func (r *usageRepository) Create(ctx context.Context, record *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (operation, voice_id, characters, audio_bytes, status, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(ctx, query,
		record.Operation, record.VoiceID, record.Characters, record.AudioBytes,
		record.Status, record.DurationMS, record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания записи журнала: %w", err)
	}

	r.logger.Debug("создана запись журнала",
		zap.Int64("id", record.ID),
		zap.String("operation", record.Operation),
		zap.String("status", record.Status))
	return nil
}

// ListRecent возвращает последние записи журнала
func (r *usageRepository) ListRecent(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	limit = clampLimit(limit)

	query := `
		SELECT id, operation, voice_id, characters, audio_bytes, status, duration_ms, created_at
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.VoiceID, &rec.Characters,
			&rec.AudioBytes, &rec.Status, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Stats возвращает агрегаты по операциям начиная с момента since
func (r *usageRepository) Stats(ctx context.Context, since time.Time) ([]models.UsageStats, error) {
	query := `
		SELECT operation,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status <> 'success'),
		       COALESCE(SUM(characters), 0),
		       COALESCE(SUM(audio_bytes), 0)::BIGINT
		FROM usage_records
		WHERE created_at >= $1
		GROUP BY operation
		ORDER BY operation`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	defer rows.Close()

	var stats []models.UsageStats
	for rows.Next() {
		var s models.UsageStats
		if err := rows.Scan(&s.Operation, &s.Total, &s.Failed, &s.Characters, &s.AudioBytes); err != nil {
			return nil, fmt.Errorf("ошибка сканирования статистики: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// CountOlderThan считает записи старше указанного момента
func (r *usageRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM usage_records WHERE created_at < $1`, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета старых записей: %w", err)
	}
	return count, nil
}

// DeleteOlderThan удаляет записи старше указанного момента
func (r *usageRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM usage_records WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых записей: %w", err)
	}

	r.logger.Info("удалены старые записи журнала",
		zap.Int64("deleted", tag.RowsAffected()),
		zap.Time("before", before))

	return tag.RowsAffected(), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
