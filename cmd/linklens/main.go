package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/Hassam-Ata/linklens/internal/api/http"
	"github.com/Hassam-Ata/linklens/internal/clicks"
	"github.com/Hassam-Ata/linklens/internal/config"
	"github.com/Hassam-Ata/linklens/internal/database/postgres"
	"github.com/Hassam-Ata/linklens/internal/safety"
	"github.com/Hassam-Ata/linklens/internal/service"
	pkgpostgres "github.com/Hassam-Ata/linklens/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("linklens", httplog.Options{
		LogLevel: logLevel(cfg.Env),
		JSON:     cfg.Env == config.EnvProd,
		Concise:  cfg.Env != config.EnvProd,
	})

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}

	if err := pkgpostgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	urlRepo := postgres.NewURLRepository(db)

	recorder := clicks.NewRecorder(logger.Logger, urlRepo)
	g.Go(func() error {
		return recorder.Run(ctx)
	})

	classifier := safety.NewGeminiClassifier(
		cfg.Safety.APIKey,
		safety.WithModel(cfg.Safety.Model),
		safety.WithTimeout(cfg.Safety.Timeout),
	)
	checker := safety.NewChecker(logger.Logger, classifier)

	urlSvc := service.NewURLService(logger.Logger, urlRepo, recorder, checker, cfg.ShortCodeLength)
	auth := myhttp.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	r := myhttp.NewRouter(logger, auth, urlSvc, checker)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}

func logLevel(env string) slog.Level {
	switch env {
	case config.EnvProd:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
