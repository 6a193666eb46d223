package components

import (
	"mechanic-booking/internal/infra/db"
	"mechanic-booking/internal/infra/notify"
	"mechanic-booking/internal/infra/readstore"
	"mechanic-booking/internal/infra/repository"
	"mechanic-booking/internal/infra/uow"
	"mechanic-booking/internal/usecase/availability"
	"mechanic-booking/internal/usecase/queries"
	"mechanic-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// UnitOfWork
		uow.NewPostgresUoW,
		// Pool-bound reads for the availability view
		func(u shared.UnitOfWork) availability.OverlapReader {
			return u.Reservations()
		},
		// Outbox writes made after commit
		fx.Annotate(
			repository.NewNotificationRepository,
			fx.As(new(notify.Outbox)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
