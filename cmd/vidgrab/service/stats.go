package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lyzr/vidgrab/cmd/vidgrab/models"
)

// StatsKey is the Redis hash holding per format/outcome counters
const StatsKey = "vidgrab:stats"

// HashCounter is the subset of the Redis client the stats recorder needs
type HashCounter interface {
	IncrementHash(ctx context.Context, key, field string, increment int64) (int64, error)
	GetAllHash(ctx context.Context, key string) (map[string]string, error)
}

// StatsService keeps download counters in a Redis hash, one field per
// "<format>:<status>" pair.
type StatsService struct {
	counter HashCounter
}

// NewStatsService creates a new stats service
func NewStatsService(counter HashCounter) *StatsService {
	return &StatsService{counter: counter}
}

// Record increments the counter for rec's format and status
func (s *StatsService) Record(ctx context.Context, rec *models.DownloadRecord) error {
	_, err := s.counter.IncrementHash(ctx, StatsKey, statsField(rec), 1)
	return err
}

// Counters returns all counters keyed by "<format>:<status>"
func (s *StatsService) Counters(ctx context.Context) (map[string]int64, error) {
	raw, err := s.counter.GetAllHash(ctx, StatsKey)
	if err != nil {
		return nil, err
	}

	counters := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid counter %s=%q: %w", field, value, err)
		}
		counters[field] = n
	}
	return counters, nil
}

func statsField(rec *models.DownloadRecord) string {
	return fmt.Sprintf("%s:%s", rec.Format, rec.Status)
}
