package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/schooldesk/auth-server/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// LoginHandler exchanges credentials for a session/refresh token pair.
// Bad request bodies are a validation failure (422); failed credential
// checks are 401 without revealing which check failed.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusUnprocessableEntity, "email and password are required")
			return
		}

		pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			s.logger.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			SessionToken: pair.SessionToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

// RefreshHandler mints a new session token from a refresh token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusUnprocessableEntity, "refresh_token is required")
			return
		}

		sessionToken, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidRefreshToken) {
				writeError(w, http.StatusUnauthorized, "invalid refresh token")
				return
			}
			s.logger.Error().Err(err).Msg("refresh failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{Token: sessionToken})
	}
}

// LogoutHandler revokes the refresh token. Revoking an unknown token is
// not an error, the end state is the same.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusUnprocessableEntity, "refresh_token is required")
			return
		}

		if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
			s.logger.Error().Err(err).Msg("logout failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the claims of the authenticated caller.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		writeJSON(w, http.StatusOK, meResponse{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
	}
}

// ListUsersHandler returns a page of users. Password hashes never
// serialize, the users.User json tags exclude them.
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset := queryInt(r, "offset", 0)
		limit := queryInt(r, "limit", 50)

		userList, err := s.repos.Users.List(r.Context(), offset, limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("list users failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, userList)
	}
}

// ListRolesHandler returns all roles with their permission lists.
func (s *Server) ListRolesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleList, err := s.repos.Roles.List(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("list roles failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, roleList)
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
