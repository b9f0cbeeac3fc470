package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"

	"academydb/internal/core"
	"academydb/internal/service"
)

const (
	tokenCookieName = "token"
	sessionName     = "academy-session"
)

type AuthHandler struct {
	authSvc *service.AuthService
	tokens  *service.TokenService
	store   *sessions.CookieStore
}

func NewAuthHandler(authSvc *service.AuthService, tokens *service.TokenService, sessionKey string) *AuthHandler {
	// The encryption key doubles as the cookie signing key
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false, // set to true behind HTTPS
	}

	return &AuthHandler{
		authSvc: authSvc,
		tokens:  tokens,
		store:   store,
	}
}

type registerRequest struct {
	UserName string    `json:"userName"`
	Email    string    `json:"email"`
	RoleID   core.Role `json:"roleId"`
	Password string    `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authSvc.Register(req.UserName, req.Email, req.RoleID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.establishSession(w, r, resp)
	writeJSON(w, http.StatusOK, resp)
}

type refreshRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Refresh(req.Token, req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.establishSession(w, r, resp)
	writeJSON(w, http.StatusOK, resp)
}

type revokeRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.authSvc.Revoke(req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.clearSession(w, r)
	writeJSON(w, http.StatusOK, ok)
}

// establishSession sets the short-lived token cookie plus a session cookie
// with the denormalized public fields, so a browser client can hydrate
// without a round trip.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, resp *service.AuthResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
	})

	session, _ := h.store.Get(r, sessionName)
	session.Values["user_id"] = resp.ID
	session.Values["user_name"] = resp.UserName
	session.Values["email"] = resp.Email
	session.Values["role_id"] = int(resp.RoleID)
	session.Values["landing"] = resp.RoleID.Landing()
	// The JSON body already carries everything the client needs; a failed
	// cookie write is not worth failing the login over.
	_ = session.Save(r, w)
}

func (h *AuthHandler) clearSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	session, _ := h.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
}
