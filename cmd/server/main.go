package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schooldesk/auth-server/auth"
	"github.com/schooldesk/auth-server/internal/config"
	"github.com/schooldesk/auth-server/internal/storage/sqlite"
	"github.com/schooldesk/auth-server/server"
	"github.com/schooldesk/auth-server/token/refresh"
)

const sweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	displayAppname(c.GetAppName())

	store, err := openStore(c)
	if err != nil {
		return errors.Wrap(err, "openStore")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshRepo, closeRefreshRepo, err := newRefreshRepo(ctx, c)
	if err != nil {
		return errors.Wrap(err, "newRefreshRepo")
	}
	defer closeRefreshRepo()

	srv, err := server.New(c, auth.Repos{Users: store.Users(), Roles: store.Roles()}, refreshRepo)
	if err != nil {
		return errors.Wrap(err, "server.New")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func openStore(c config.Config) (*sqlite.Store, error) {
	path := c.GetSQLitePath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create storage directory")
		}
	}
	return sqlite.Open(path)
}

// newRefreshRepo selects the refresh token store: Redis when an address
// is configured, otherwise in-memory with a periodic sweeper. The
// in-memory store loses all refresh tokens on restart.
func newRefreshRepo(ctx context.Context, c config.Config) (refresh.Repo, func(), error) {
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrapf(err, "ping redis %q", addr)
		}

		log.Info().Str("addr", addr).Msg("using redis refresh token store")
		return refresh.NewRedisRepo(client, c.GetRefreshTokenExpiry()), func() { _ = client.Close() }, nil
	}

	log.Info().Msg("using in-memory refresh token store")
	repo := refresh.NewInMemoryRepo(c.GetRefreshTokenExpiry())
	repo.StartSweeper(ctx, sweepInterval)
	return repo, func() {}, nil
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
