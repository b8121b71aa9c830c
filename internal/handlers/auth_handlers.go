package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dose-tracker/internal/auth"
	"dose-tracker/internal/middleware"
	"dose-tracker/internal/store"
)

// SetupRequest creates the household's single login record on first run
type SetupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// HandleSetup creates credentials when none exist yet
func HandleSetup(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := st.Credentials()
		if err != nil {
			log.Printf("Failed to load credentials: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "Setup already complete", http.StatusConflict)
			return
		}

		var req SetupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" {
			http.Error(w, "username is required", http.StatusBadRequest)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrWeakPassword) {
				http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
				return
			}
			log.Printf("Failed to hash password: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		creds := store.Credentials{Username: req.Username, PasswordHash: hash}
		if err := st.SaveCredentials(creds); err != nil {
			log.Printf("Failed to save credentials: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

// HandleLogin verifies credentials and issues a session token
func HandleLogin(st *store.Store, jwtManager *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		creds, err := st.Credentials()
		if err != nil {
			log.Printf("Failed to load credentials: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if creds == nil || creds.Username != req.Username ||
			auth.VerifyPassword(creds.PasswordHash, req.Password) != nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := jwtManager.GenerateToken(creds.Username)
		if err != nil {
			log.Printf("Failed to generate token: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   int(jwtManager.SessionDuration().Seconds()),
		})

		writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: creds.Username})
	}
}

// HandleGetCurrentUser returns the authenticated username
func HandleGetCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.GetUsername(r.Context())
		if username == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"username": username})
	}
}
