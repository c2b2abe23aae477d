package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"stock-ledger-go/internal/models"

	"go.uber.org/zap"
)

type credentialsRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type sessionResponse struct {
	User      models.UserProfile `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

type tradeRequest struct {
	Symbol string      `json:"symbol"`
	Shares json.Number `json:"shares"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := s.ledger.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Registering logs the user in
	s.startSession(w, r, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := s.ledger.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.startSession(w, r, http.StatusOK, user)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, code int, user *models.User) {
	token, expiresAt, err := s.sessions.Issue(user.Id, user.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, code, sessionResponse{
		User:      models.UserProfile{Id: user.Id, Username: user.Username, Cash: user.Cash},
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := s.ledger.GetPortfolio(r.Context(), sessionFrom(r.Context()).AccountId)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if r.Method == http.MethodPost {
		var req symbolRequest
		if err := decodeJSON(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}
		symbol = req.Symbol
	}

	q, err := s.ledger.GetQuote(r.Context(), symbol)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	req, quantity, ok := decodeTrade(w, r)
	if !ok {
		return
	}

	result, err := s.ledger.Buy(r.Context(), sessionFrom(r.Context()).AccountId, req.Symbol, quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSellForm(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.ledger.GetTradableSymbols(r.Context(), sessionFrom(r.Context()).AccountId)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	req, quantity, ok := decodeTrade(w, r)
	if !ok {
		return
	}

	result, err := s.ledger.Sell(r.Context(), sessionFrom(r.Context()).AccountId, req.Symbol, quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.ledger.GetHistory(r.Context(), sessionFrom(r.Context()).AccountId)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": history})
}

func decodeTrade(w http.ResponseWriter, r *http.Request) (tradeRequest, int64, bool) {
	var req tradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return req, 0, false
	}

	quantity, err := parseQuantity(req.Shares)
	if err != nil {
		writeServiceError(w, r, err)
		return req, 0, false
	}
	return req, quantity, true
}
