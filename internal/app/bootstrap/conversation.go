package bootstrap

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/turnera/turnos-ai-platform/internal/appointments"
	appconfig "github.com/turnera/turnos-ai-platform/internal/config"
	"github.com/turnera/turnos-ai-platform/internal/conversation"
	"github.com/turnera/turnos-ai-platform/internal/dialog"
	"github.com/turnera/turnos-ai-platform/internal/observability/metrics"
	"github.com/turnera/turnos-ai-platform/internal/patients"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

// BuildConversationService wires the turn processor: repositories over the
// pgx pool, the state store over database/sql, the optional Redis lock and
// the optional generative fallback.
func BuildConversationService(
	cfg *appconfig.Config,
	pool *pgxpool.Pool,
	sqlDB *sql.DB,
	redisClient *redis.Client,
	sender conversation.ReplySender,
	m *metrics.ConversationMetrics,
	logger *logging.Logger,
) (*conversation.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if pool == nil || sqlDB == nil {
		return nil, fmt.Errorf("bootstrap: database handles are required")
	}
	if sender == nil {
		return nil, fmt.Errorf("bootstrap: reply sender is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := []conversation.ServiceOption{
		conversation.WithMetrics(m),
		conversation.WithTimezone(cfg.DefaultTimezone),
		conversation.WithCategory(dialog.BusinessCategory(cfg.BusinessCategory)),
		conversation.WithLookaheadDays(cfg.BookingLookaheadDays),
	}

	if redisClient != nil {
		opts = append(opts, conversation.WithLocker(
			conversation.NewRedisLock(redisClient, cfg.LockTTL, logger),
		))
	} else {
		logger.Warn("conversation lock disabled; concurrent turns from one number may interleave")
	}

	if cfg.FallbackEnabled && strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		opts = append(opts, conversation.WithFallbackAgent(
			conversation.NewOpenAIFallback(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		))
		logger.Info("generative fallback enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("generative fallback disabled")
	}

	return conversation.NewService(
		patients.NewRepository(pool),
		appointments.NewRepository(pool),
		conversation.NewStateStore(sqlDB),
		sender,
		logger,
		opts...,
	), nil
}
