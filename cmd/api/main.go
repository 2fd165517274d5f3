package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"academy.org/internal/auth"
	"academy.org/internal/authz"
	"academy.org/internal/config"
	"academy.org/internal/httpapi"
	"academy.org/internal/obs"
	"academy.org/internal/users"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}
	obs.InitLogger(obs.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := obs.Logger()

	lookup, err := users.Open(cfg.Users)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Users.Source).Msg("open user directory")
	}
	codec, err := auth.NewTokenCodec(cfg.JWT)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}
	authenticator, err := auth.NewAuthenticator(lookup, codec)
	if err != nil {
		log.Fatal().Err(err).Msg("authenticator")
	}
	rules, err := authz.LoadRules(cfg.Authz.PolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load authorization rules")
	}

	api, err := httpapi.New(cfg, authenticator, rules, obs.NewMetrics(), version)
	if err != nil {
		log.Fatal().Err(err).Msg("http api")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Info().
		Str("version", version).
		Str("addr", srv.Addr).
		Str("users", cfg.Users.Source).
		Int("rules", len(rules.Rules())).
		Msg("starting academy-api")

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}
