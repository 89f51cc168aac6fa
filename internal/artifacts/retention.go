package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type RetentionConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	Prefix   string
}

// Sweeper deletes report artifacts older than MaxAge.
type Sweeper struct {
	Store  Store
	Config RetentionConfig
	Logger *slog.Logger
	Clock  func() time.Time
}

type RetentionSummary struct {
	ObjectsScanned int   `json:"objects_scanned"`
	ObjectsDeleted int   `json:"objects_deleted"`
	BytesReclaimed int64 `json:"bytes_reclaimed"`
	Failures       int   `json:"failures"`
}

func (s *Sweeper) Run(ctx context.Context) error {
	s.ensureDefaults()

	ticker := time.NewTicker(s.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			summary, err := s.SweepOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "retention cycle failed", slog.Any("error", err), slog.Any("summary", summary))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "retention cycle completed", slog.Any("summary", summary))
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (RetentionSummary, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return RetentionSummary{}, fmt.Errorf("artifact store is required")
	}

	cutoff := s.Clock().Add(-s.Config.MaxAge)
	infos, err := s.Store.List(ctx, s.Config.Prefix)
	if err != nil {
		retentionRunsTotal.WithLabelValues("failed").Inc()
		return RetentionSummary{}, fmt.Errorf("list artifacts for retention: %w", err)
	}

	summary := RetentionSummary{ObjectsScanned: len(infos)}
	failures := make([]string, 0)

	for _, info := range infos {
		if !info.LastModified.Before(cutoff) {
			continue
		}
		if err := s.Store.Delete(ctx, info.Key); err != nil {
			summary.Failures++
			failures = append(failures, fmt.Sprintf("delete artifact %s: %v", info.Key, err))
			continue
		}
		summary.ObjectsDeleted++
		summary.BytesReclaimed += info.Size
	}

	if summary.ObjectsDeleted > 0 {
		retentionObjectsDeletedTotal.Add(float64(summary.ObjectsDeleted))
		retentionBytesReclaimed.Add(float64(summary.BytesReclaimed))
	}
	if len(failures) > 0 {
		retentionRunsTotal.WithLabelValues("failed").Inc()
		return summary, fmt.Errorf("retention encountered %d failure(s): %s", len(failures), strings.Join(failures, "; "))
	}
	retentionRunsTotal.WithLabelValues("completed").Inc()
	return summary, nil
}

func (s *Sweeper) ensureDefaults() {
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.Config.Interval <= 0 {
		s.Config.Interval = 10 * time.Minute
	}
	if s.Config.MaxAge <= 0 {
		s.Config.MaxAge = 7 * 24 * time.Hour
	}
	if s.Config.Prefix == "" {
		s.Config.Prefix = "reports/"
	}
}
