package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/haptiq/haptiq-server/internal/infrastructure/configs"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/infrastructure/metrics"
	"github.com/haptiq/haptiq-server/internal/infrastructure/ratelimiter"
	gameHandler "github.com/haptiq/haptiq-server/internal/presentation/handler/game"
	healthHandler "github.com/haptiq/haptiq-server/internal/presentation/handler/health"
	roomHandler "github.com/haptiq/haptiq-server/internal/presentation/handler/rooms"
)

type Application struct {
	config        configs.Config
	roomHandler   roomHandler.Handler
	gameHandler   gameHandler.Handler
	healthHandler healthHandler.Handler
	logger        logging.Logger
	metrics       *metrics.Metrics
	ratelimiter   ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	roomHandler roomHandler.Handler,
	gameHandler gameHandler.Handler,
	healthHandler healthHandler.Handler,
	logger logging.Logger,
	metrics *metrics.Metrics,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:        config,
		roomHandler:   roomHandler,
		gameHandler:   gameHandler,
		healthHandler: healthHandler,
		logger:        logger,
		metrics:       metrics,
		ratelimiter:   ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.metricsMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", app.roomHandler.CreateRoomHandler)
			r.Get("/{roomCode}", app.roomHandler.GetRoomHandler)
			r.Delete("/{roomCode}", app.roomHandler.DeleteRoomHandler)
			r.Post("/{roomCode}/players", app.roomHandler.JoinRoomHandler)
			r.Get("/{roomCode}/players", app.roomHandler.GetPlayersHandler)
			r.Get("/{roomCode}/connect", app.roomHandler.ConnectHandler)

			r.Post("/{roomCode}/start", app.gameHandler.StartRoundHandler)
			r.Post("/{roomCode}/guess", app.gameHandler.SubmitGuessHandler)
			r.Post("/{roomCode}/vote", app.gameHandler.SubmitVoteHandler)
			r.Post("/{roomCode}/leave", app.gameHandler.LeaveRoomHandler)
			r.Post("/{roomCode}/play-again", app.gameHandler.PlayAgainHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", app.metrics.Handler())

	return otelhttp.NewHandler(r, "haptiq-server")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
