package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schooldesk/auth-server/auth"
	"github.com/schooldesk/auth-server/internal/config"
	"github.com/schooldesk/auth-server/token"
	"github.com/schooldesk/auth-server/token/refresh"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	repos  auth.Repos
	logger zerolog.Logger
}

func New(config config.Config, repos auth.Repos, refreshRepo refresh.Repo) (*Server, error) {
	codec, err := token.NewCodec(config.GetSigningSecret())
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] token.NewCodec")
	}

	refreshManager := refresh.NewManager(refreshRepo,
		refresh.WithExpiry(config.GetRefreshTokenExpiry()),
		refresh.WithTokenLength(config.GetRefreshTokenLength()),
	)

	authService, err := auth.NewService(repos, codec, refreshManager,
		auth.WithSessionTokenExpiry(config.GetSessionTokenExpiry()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] auth.NewService")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
		auth:   authService,
		env:    config.GetEnv(),
		logger: log.With().Str("component", "server").Logger(),
	}

	// Bootstrap: ensure the default roles and the initial admin user exist
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, errors.Wrap(err, "[Server New] InitialiseSystem")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			s.logger.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}
