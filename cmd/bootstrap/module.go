package bootstrap

import (
	"mechanic-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	DomainModule,
	MetricsModule,
	JWTModule,
	components.PersistenceModule,
	components.IntegrationModule,
	components.UseCaseModule,
	components.HandlerModule,
	components.WorkerModule,
)
