package components

import (
	"context"
	"log/slog"
	"time"

	"mechanic-booking/internal/infra/cache"
	"mechanic-booking/internal/infra/gateway"
	"mechanic-booking/internal/infra/notify"
	"mechanic-booking/internal/pkg/clock"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/metrics"
	"mechanic-booking/internal/usecase/commands"

	"go.uber.org/fx"
)

var IntegrationModule = fx.Module("integration",
	fx.Provide(
		NewPaymentGateway,
		NewNotifier,
		NewEventDeduper,
	),
)

func NewPaymentGateway(cfg config.Config, clk clock.Clock) commands.PaymentGateway {
	return gateway.NewStripeGateway(cfg.Stripe, clk)
}

func NewNotifier(
	cfg config.Config,
	outbox notify.Outbox,
	loc *time.Location,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
) (commands.Notifier, error) {
	sender, err := notify.NewTelegramSender(cfg.Telegram)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, owner messages disabled")
	}
	return notify.NewDispatcher(sender, cfg.Telegram.OwnerChatID, outbox, loc, clk, m, logger), nil
}

func NewEventDeduper(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) commands.EventDeduper {
	client := cache.NewClient(cfg.Redis)
	if client == nil {
		logger.Warn("REDIS_ADDR not set, webhook event de-duplication disabled")
		return cache.NoopDeduper{}
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// de-duplication fails open, so an unreachable redis is not fatal
				logger.Warn("redis unreachable at startup", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return cache.NewRedisDeduper(client, cfg.Redis.KeyPrefix, cfg.Redis.EventLease, cfg.Redis.EventTTL)
}
