package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "pawpal/docs"
	mem "pawpal/internal/adapters/storage/memory"
	pg "pawpal/internal/adapters/storage/postgres"
	"pawpal/internal/domain/activity"
	"pawpal/internal/domain/households"
	"pawpal/internal/domain/sharing"
	"pawpal/internal/middleware"
	"pawpal/internal/platform/logger"
	"pawpal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger        logger.Logger // nil = Nop
	PlanCacheSize int           // <= 0 usa el default del service
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	r.Use(middleware.AccessLog(log.With(map[string]any{"component": "http"})))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		householdRepo households.Repository
		grantsRepo    sharing.Repository
		activityRepo  activity.Repository
	)

	if opts.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx, opts.DB); err != nil {
			log.Error("ensure schema failed", map[string]any{"error": err})
		}

		householdRepo = pg.NewHouseholdsRepo(opts.DB)
		grantsRepo = pg.NewGrantsRepo(opts.DB)
		activityRepo = pg.NewActivityRepo(opts.DB)
	} else {
		householdRepo = mem.NewHouseholdRepo()
		grantsRepo = mem.NewGrantRepo()
		activityRepo = mem.NewActivityRepo()
	}

	// Services por módulo
	householdsSvc := households.NewService(householdRepo, households.Options{
		Logger:        log,
		PlanCacheSize: opts.PlanCacheSize,
	})
	grantsSvc := sharing.NewService(grantsRepo)
	activitySvc := activity.NewService(activityRepo, log)

	// Rutas por módulo
	households.RegisterRoutes(r, householdsSvc, grantsSvc, activitySvc)
	sharing.RegisterRoutes(r, grantsSvc, householdsSvc)

	return r
}
