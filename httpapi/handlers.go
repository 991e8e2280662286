package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	guidancedesk "github.com/campuskit/guidancedesk"
	"github.com/campuskit/guidancedesk/records"
)

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email      string `json:"email"`
	EnteredOTP string `json:"enteredOtp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success         bool   `json:"success"`
	Token           string `json:"token,omitempty"`
	RedirectToSetup bool   `json:"redirectToSetup,omitempty"`
	Message         string `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the engine taxonomy onto the wire contract: client
// mistakes (validation, missing OTP, expiry, credentials, state) are 400,
// collaborator failures (store, delivery) are 500. OTP misses surface the
// fixed strings the clients key on.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, guidancedesk.ErrNotFound):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid OTP"})
	case errors.Is(err, guidancedesk.ErrExpired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "OTP expired"})
	case errors.Is(err, guidancedesk.ErrValidation),
		errors.Is(err, guidancedesk.ErrInvalidCredentials),
		errors.Is(err, guidancedesk.ErrInvalidState),
		errors.Is(err, records.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, records.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func (s *Server) handleOTPSend(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.engine.SendOTP(r.Context(), req.Email); err != nil {
		s.log.Warn(r.Context(), "otp send failed", "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "OTP sent"})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.engine.VerifyOTP(r.Context(), req.Email, req.EnteredOTP); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "OTP verified"})
}

func (s *Server) handleOTPDelete(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.engine.DeleteOTP(r.Context(), req.Email); err != nil && !errors.Is(err, guidancedesk.ErrValidation) {
		writeError(w, err)
		return
	}

	// Idempotent by contract: deleting a non-existent code still reports
	// success.
	writeJSON(w, http.StatusOK, messageResponse{Message: "OTP deleted"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, guidancedesk.ErrNotFound),
			errors.Is(err, guidancedesk.ErrInvalidCredentials):
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: "invalid email or password"})
		case errors.Is(err, guidancedesk.ErrValidation):
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, loginResponse{Message: "internal error"})
		}
		return
	}

	if result.RedirectToSetup {
		writeJSON(w, http.StatusOK, loginResponse{Success: true, RedirectToSetup: true})
		return
	}

	s.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: result.Token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	counselor, err := s.engine.RegisterCounselor(r.Context(), req.Email, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}

	// The email was verified via OTP just before registration; drop the
	// code now so it cannot be replayed.
	if err := s.engine.DeleteOTP(r.Context(), counselor.Email); err != nil {
		s.log.Warn(r.Context(), "post-register otp cleanup failed", "email", counselor.Email, "err", err)
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "counselor registered"})
}

func (s *Server) handleSetupPassword(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.engine.SetupPassword(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, guidancedesk.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown account"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password set"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookieName := s.engine.Config().Session.CookieName
	if cookie, err := r.Cookie(cookieName); err == nil {
		if err := s.engine.Logout(r.Context(), cookie.Value); err != nil {
			s.log.Warn(r.Context(), "logout failed", "err", err)
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleListCounselors(w http.ResponseWriter, r *http.Request) {
	counselors, err := s.engine.ListCounselors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type profile struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		FullName     string `json:"fullName,omitempty"`
		SetupPending bool   `json:"setupPending"`
	}
	out := make([]profile, 0, len(counselors))
	for _, c := range counselors {
		out = append(out, profile{ID: c.ID, Email: c.Email, FullName: c.FullName, SetupPending: c.SetupPending})
	}
	writeJSON(w, http.StatusOK, out)
}

// setSessionCookie issues the hardened session cookie. Secure is relaxed
// only in dev mode.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	cfg := s.engine.Config()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   !cfg.DevMode,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	cfg := s.engine.Config()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !cfg.DevMode,
		SameSite: http.SameSiteStrictMode,
	})
}
