// Package handlers exposes the REST API over the service layer.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/twentytesters/backend/internal/auth"
	"github.com/twentytesters/backend/internal/middleware"
	"github.com/twentytesters/backend/internal/service"
)

// Handler bundles the services behind the REST routes.
type Handler struct {
	Auth          *service.AuthService
	Apps          *service.AppService
	Queue         *service.QueueService
	Groups        *service.GroupService
	Requests      *service.RequestService
	Notifications *service.NotificationService
}

// Register attaches all routes to the router. authMW guards everything
// except registration and login.
func (h *Handler) Register(r *mux.Router, authMW func(http.Handler) http.Handler) {
	r.HandleFunc("/api/auth/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMW)

	api.HandleFunc("/app", h.handleListApps).Methods(http.MethodGet)
	api.HandleFunc("/app", h.handleCreateApp).Methods(http.MethodPost)

	api.HandleFunc("/queue", h.handleListQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue", h.handleJoinQueue).Methods(http.MethodPost)
	api.HandleFunc("/queue", h.handleLeaveQueue).Methods(http.MethodDelete)

	api.HandleFunc("/group", h.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/group/{id}", h.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/group/{id}/join", h.handleJoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/group/{id}/leave", h.handleLeaveGroup).Methods(http.MethodPost)

	api.HandleFunc("/request", h.handleListRequests).Methods(http.MethodGet)
	api.HandleFunc("/request", h.handleCreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/request/confirm", h.handleConfirmRequest).Methods(http.MethodPost)

	api.HandleFunc("/notification", h.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notification/read", h.handleMarkNotificationRead).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps the service error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGoalAlreadyMet), errors.Is(err, service.ErrSelfRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrGroupLocked), errors.Is(err, service.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func callerID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
