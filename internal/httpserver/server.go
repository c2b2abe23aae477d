// Package httpserver exposes the ledger service over HTTP with JSON bodies.
package httpserver

import (
	"net/http"

	"stock-ledger-go/internal/api"
	"stock-ledger-go/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	ledger        *api.LedgerService
	sessions      *auth.Sessions
	secureCookies bool
}

func NewServer(ledger *api.LedgerService, sessions *auth.Sessions, secureCookies bool) *Server {
	return &Server{ledger: ledger, sessions: sessions, secureCookies: secureCookies}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(noCache)

	r.Get("/health", s.handleHealth)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)

		r.Get("/", s.handlePortfolio)
		r.Get("/quote", s.handleQuote)
		r.Post("/quote", s.handleQuote)
		r.Post("/buy", s.handleBuy)
		r.Get("/sell", s.handleSellForm)
		r.Post("/sell", s.handleSell)
		r.Get("/history", s.handleHistory)
	})

	return r
}
