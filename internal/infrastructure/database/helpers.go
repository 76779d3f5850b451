package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Ping kiểm tra database connection có còn sống không, dùng cho readiness check
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close đóng tất cả connections trong pool. Gọi nhiều lần là no-op.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		return nil
	}
	db.Pool.Close()
	db.Pool = nil
	log.Info().Msg("[DATABASE] connection pool closed")
	return nil
}

// PoolStats là snapshot của connection pool, trả về trong readiness detail
type PoolStats struct {
	AcquiredConns   int32         `json:"acquiredConns"`
	IdleConns       int32         `json:"idleConns"`
	TotalConns      int32         `json:"totalConns"`
	MaxConns        int32         `json:"maxConns"`
	AcquireCount    int64         `json:"acquireCount"`
	AvgAcquireDelay time.Duration `json:"avgAcquireDelayNs"`
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns:   raw.AcquiredConns(),
		IdleConns:       raw.IdleConns(),
		TotalConns:      raw.TotalConns(),
		MaxConns:        raw.MaxConns(),
		AcquireCount:    raw.AcquireCount(),
		AvgAcquireDelay: calculateAvgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}

// MonitorPoolHealth log cảnh báo khi pool gần cạn, chạy trong goroutine riêng
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				return
			}
			if stats.MaxConns > 0 {
				utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
				if utilization > 80 {
					log.Warn().Float64("utilization_pct", utilization).
						Int32("acquired", stats.AcquiredConns).
						Int32("max", stats.MaxConns).
						Msg("[DATABASE] high pool utilization")
				}
			}
			if stats.AvgAcquireDelay > 100*time.Millisecond {
				log.Warn().Dur("avg_acquire", stats.AvgAcquireDelay).Msg("[DATABASE] high acquire latency")
			}
		case <-ctx.Done():
			return
		}
	}
}
