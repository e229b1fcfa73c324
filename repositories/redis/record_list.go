package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/upb/structured-logger/config"
	"github.com/upb/structured-logger/models"
	"go.uber.org/zap"
)

// RecordList appends structured records, as JSON, to a Redis list.
// A log shipper is expected to pop the list; nothing here trims it.
type RecordList struct {
	client *goredis.Client
	key    string
	logger *zap.Logger
}

// NewClient creates a Redis client from configuration and verifies the connection
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRecordList creates a RecordList pushing to key
func NewRecordList(client *goredis.Client, key string, logger *zap.Logger) *RecordList {
	return &RecordList{
		client: client,
		key:    key,
		logger: logger,
	}
}

// Name reports the transport name used in metrics
func (l *RecordList) Name() string {
	return "redis"
}

// Write pushes the batch with a single RPUSH so the records stay contiguous and ordered
func (l *RecordList) Write(ctx context.Context, records []models.StructuredRecord) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]any, 0, len(records))
	for _, rec := range records {
		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		values = append(values, encoded)
	}

	length, err := l.client.RPush(ctx, l.key, values...).Result()
	if err != nil {
		return fmt.Errorf("failed to push records: %w", err)
	}

	l.logger.Debug("structured records pushed",
		zap.String("key", l.key),
		zap.Int("count", len(records)),
		zap.Int64("list_length", length))
	return nil
}

// Range returns the decoded records between start and stop, inclusive, as LRANGE does
func (l *RecordList) Range(ctx context.Context, start, stop int64) ([]models.StructuredRecord, error) {
	raw, err := l.client.LRange(ctx, l.key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	records := make([]models.StructuredRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.StructuredRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
