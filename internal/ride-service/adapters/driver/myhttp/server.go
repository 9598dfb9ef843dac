package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"travelo/internal/config"
	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driven/bm"
	"travelo/internal/ride-service/adapters/driven/consumer"
	"travelo/internal/ride-service/adapters/driven/db"
	"travelo/internal/ride-service/adapters/driven/memstore"
	"travelo/internal/ride-service/adapters/driven/notification"
	"travelo/internal/ride-service/adapters/driven/otpstore"
	"travelo/internal/ride-service/adapters/driver/myhttp/handle"
	"travelo/internal/ride-service/adapters/driver/myhttp/ws"
	"travelo/internal/ride-service/core/ports"
	"travelo/internal/ride-service/core/services"

	"github.com/redis/go-redis/v9"
)

var ErrServerClosed = errors.New("Server closed")

const WaitTime = 10

type Server struct {
	handler  http.Handler
	cfg      *config.Config
	srv      *http.Server
	mylog    mylogger.Logger
	db       *db.DB
	mb       *bm.RabbitMQ
	rdb      *redis.Client
	notifier *notification.Gateway
	ctx      context.Context
	cancel   context.CancelFunc
	appCtx   context.Context
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewServer derives its own cancellable context from ctx. Stop cancels it so
// background loops end even when ctx itself is still live.
func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		ctx:    ctx,
		cancel: cancel,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
	}

	return s
}

// Run initializes routes and starts listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if err := s.Configure(); err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%v", s.cfg.Srv.RideServicePort),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Srv.ReadTimeout,
		WriteTimeout: s.cfg.Srv.WriteTimeout,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.RideServicePort, "store", s.cfg.App.StoreDriver)

	mylog.Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	timeout := s.cfg.Srv.ShutdownTimeout
	if timeout <= 0 {
		timeout = WaitTime * time.Second
	}

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.cancel()
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	// the consumer loop exits once s.ctx is done
	s.cancel()
	s.wg.Wait()

	if s.notifier != nil {
		s.notifier.Wait()
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
		}
	}

	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.mylog.Error("Failed to close redis", err)
		}
	}

	if s.db != nil {
		s.db.Close()
		s.mylog.Info("Database closed")
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

type repositories struct {
	rides   ports.IRidesRepo
	users   ports.IUsersRepo
	drivers ports.IDriversRepo
	owners  ports.IOwnersRepo
	cars    ports.ICarsRepo
	admins  ports.IAdminsRepo
}

// Configure connects the backing stores and builds the handler tree.
func (s *Server) Configure() error {
	mylog := s.mylog.Action("configure")
	checks := make(map[string]handle.Check)

	// Repositories
	var repos repositories
	switch s.cfg.App.StoreDriver {
	case config.StoreMemory:
		store := memstore.New()
		repos = repositories{
			rides:   memstore.NewRidesRepo(store),
			users:   memstore.NewUsersRepo(store),
			drivers: memstore.NewDriversRepo(store),
			owners:  memstore.NewOwnersRepo(store),
			cars:    memstore.NewCarsRepo(store),
			admins:  memstore.NewAdminsRepo(store),
		}
		mylog.Warn("using in-memory store, data is lost on restart")
	default:
		database, err := db.New(s.ctx, s.cfg.DB, s.mylog)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = database
		checks["postgres"] = database.IsAlive
		repos = repositories{
			rides:   db.NewRidesRepo(database),
			users:   db.NewUsersRepo(database),
			drivers: db.NewDriversRepo(database),
			owners:  db.NewOwnersRepo(database),
			cars:    db.NewCarsRepo(database),
			admins:  db.NewAdminsRepo(database),
		}
		mylog.Info("Successful database connection")
	}

	// Message broker
	var broker ports.IRidesBroker
	if s.cfg.RabbitMq.Enabled() {
		mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		s.mb = mb
		broker = mb
		checks["rabbitmq"] = func(context.Context) error {
			if !mb.IsAlive() {
				return errors.New("rabbitmq connection is down")
			}
			return nil
		}
		mylog.Info("Successful message broker connection")
	}

	// OTP codes live in redis when it answers, otherwise in process
	var otp ports.IOtpIssuer
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	err := rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		mylog.Warn("redis unavailable, keeping otp codes in memory", "addr", s.cfg.Redis.Addr, "error", err.Error())
		_ = rdb.Close()
		otp = otpstore.NewMemory(s.cfg.App.OtpTTL, s.cfg.App.OtpMaxAttempts)
	} else {
		s.rdb = rdb
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		otp = otpstore.NewRedis(rdb, s.cfg.App.PublicJwtSecret, s.cfg.App.OtpTTL, s.cfg.App.OtpMaxAttempts)
	}

	s.notifier = notification.New(s.ctx, s.mylog, broker)

	// Rooms: fan out through the broker when there is one
	dispatcher := ws.NewDispatcher(s.ctx, s.mylog)
	var rooms ports.IRoomBroadcaster = dispatcher
	if broker != nil {
		events := consumer.New(s.ctx, &s.wg, s.mylog, dispatcher, broker)
		events.Run()
		rooms = events
	}

	// services
	authService := services.NewAuthService(s.mylog, services.AuthRepos{
		Users:   repos.users,
		Drivers: repos.drivers,
		Owners:  repos.owners,
		Admins:  repos.admins,
	}, otp, s.notifier, s.cfg.App.PublicJwtSecret, s.cfg.App.TokenTTL, s.cfg.App.OtpTTL)

	if err := authService.EnsureAdmin(s.ctx, s.cfg.App.AdminEmail, s.cfg.App.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	ridesService := services.NewRidesService(s.mylog, repos.rides, repos.users, repos.drivers, rooms, s.notifier).
		WithOtpAttempts(s.cfg.App.OtpMaxAttempts)

	svc := Services{
		Auth:      authService,
		Rides:     ridesService,
		Payment:   services.NewPaymentService(s.mylog, repos.rides, rooms, s.cfg.App.PaymentKeyId, s.cfg.App.PaymentSecret),
		Passenger: services.NewPassengerService(s.mylog, repos.users),
		Driver:    services.NewDriverService(s.mylog, repos.drivers),
		Fleet:     services.NewFleetService(s.mylog, repos.owners, repos.cars, repos.drivers, repos.rides),
		Admin: services.NewAdminService(s.mylog, services.AdminRepos{
			Rides:   repos.rides,
			Users:   repos.users,
			Drivers: repos.drivers,
			Owners:  repos.owners,
			Cars:    repos.cars,
			Admins:  repos.admins,
		}),
	}

	s.handler = NewRouter(s.mylog, svc, dispatcher, checks)
	return nil
}
