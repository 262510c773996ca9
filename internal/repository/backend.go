package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/mentorlink/internal/config"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

// Backend is an activity store that also keeps member rows in step.
type Backend interface {
	models.ActivityStore
	models.MemberDirectory
}

const probeTimeout = 5 * time.Second

// SelectBackend picks the activity backend once at startup. With auto, the
// relational candidate is probed and used when reachable, otherwise the
// key-value store serves. The choice is logged and never revisited per
// request.
func SelectBackend(ctx context.Context, mode string, relational Backend, fallback Backend, logger *slog.Logger) (Backend, error) {
	switch mode {
	case config.BackendKV:
		return fallback, nil
	case config.BackendPostgrest, config.BackendPostgres:
		if relational == nil {
			return nil, fmt.Errorf("activity backend %q is not configured", mode)
		}
		return relational, nil
	case config.BackendAuto:
		if relational == nil {
			logger.Info("No relational backend configured, using key-value store")
			return fallback, nil
		}
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := relational.Ping(probeCtx); err != nil {
			logger.Warn("Relational backend unavailable, falling back to key-value store",
				"backend", relational.Name(),
				"error", err,
			)
			return fallback, nil
		}
		return relational, nil
	default:
		return nil, fmt.Errorf("unsupported activity backend %q", mode)
	}
}
