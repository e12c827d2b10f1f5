package handlers

import (
	"net/http"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService  AuthService
	Sessions     SessionAuthority
	SecureCookie bool
}

func NewAuthHandler(authService AuthService, sessions SessionAuthority, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		AuthService:  authService,
		Sessions:     sessions,
		SecureCookie: secureCookie,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request dto.SignupRequest
	if err := decodeJSON(w, r, &request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.AuthService.Register(r.Context(), request.Email, request.Name, request.Password); err != nil {
		handleServiceError(w, r, err, "signup")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("success", true))
}

// Login принимает JSON или обычную форму, как credentials-провайдер
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.LoginRequest

	if checkContentType(r, "application/json") {
		if err := decodeJSON(w, r, &request); err != nil {
			logger.Warn("HTTP: ошибка чтения JSON", zap.Error(err))
			responseWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			logger.Warn("HTTP: ошибка чтения формы", zap.Error(err))
			responseWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		request.Email = r.PostForm.Get("email")
		request.Password = r.PostForm.Get("password")
	}

	identity, err := h.AuthService.Verify(r.Context(), request.Email, request.Password)
	if err != nil {
		handleServiceError(w, r, err, "login")
		return
	}

	token, expiresAt, err := h.Sessions.Issue(identity)
	if err != nil {
		handleServiceError(w, r, err, "issue_session")
		return
	}

	h.Sessions.SetCookie(w, token, expiresAt, h.SecureCookie)
	logger.Info("HTTP: Пользователь вошёл", zap.String("email", identity.Email))

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Success: true,
		Token:   token,
		Expires: expiresAt,
		User:    identity,
	})
}

// Logout только сбрасывает cookie, токен продолжает жить до истечения срока
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w, h.SecureCookie)
	responseWithJSON(w, http.StatusOK, toPayload("success", true))
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, expiresAt, ok := h.Sessions.Current(r)
	if !ok {
		writeJSON(w, http.StatusOK, dto.SessionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		User:    &identity,
		Expires: &expiresAt,
	})
}
