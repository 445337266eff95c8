// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"itblog/internal/session"
	"itblog/internal/store"
)

// AuthHandler serves login and logout for the admin area.
type AuthHandler struct {
	users    *store.UserStore
	sessions *session.Store
}

func NewAuthHandler(users *store.UserStore, sessions *session.Store) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// Login handles POST /admin/login. Invalid email and wrong password get
// the same response so the endpoint does not leak which accounts exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, err := h.users.Authenticate(in.Email, in.Password)
	if err != nil {
		slog.Error("authenticating user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   time.Now(),
	}
	if _, err := h.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("creating session", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("user signed in", "user", user.ID, "email", user.Email)
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}
