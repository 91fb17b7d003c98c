package handlers

import (
	"net/http"

	"github.com/twentytesters/backend/internal/models"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.Auth.Register(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decodeBody(w, r, &body) {
		return
	}

	user, token, err := h.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

type createAppBody struct {
	AppName           string `json:"appName"`
	PackageName       string `json:"packageName"`
	TargetTesterCount int    `json:"targetTesterCount"`
}

func (h *Handler) handleCreateApp(w http.ResponseWriter, r *http.Request) {
	var body createAppBody
	if !decodeBody(w, r, &body) {
		return
	}

	app, err := h.Apps.Create(r.Context(), callerID(r), body.AppName, body.PackageName, body.TargetTesterCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Apps.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

type queueBody struct {
	AppID string `json:"appId"`
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Queue.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	var body queueBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.AppID == "" {
		writeMessage(w, http.StatusBadRequest, "missing appId")
		return
	}

	if err := h.Queue.Join(r.Context(), body.AppID, callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "app added to the queue")
}

func (h *Handler) handleLeaveQueue(w http.ResponseWriter, r *http.Request) {
	var body queueBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.AppID == "" {
		writeMessage(w, http.StatusBadRequest, "missing appId")
		return
	}

	if err := h.Queue.Leave(r.Context(), body.AppID, callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "queue entry removed")
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Groups.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Groups.Get(r.Context(), pathID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Groups.Join(r.Context(), pathID(r), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "joined group")
}

func (h *Handler) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	// Administrative override for locked groups, off by default.
	override := r.URL.Query().Get("override") == "true"

	if err := h.Groups.Leave(r.Context(), pathID(r), callerID(r), override); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "left group")
}

type createRequestBody struct {
	GroupID   string `json:"groupId"`
	AppUserID string `json:"appUserId"`
	ImageURL  string `json:"imageUrl"`
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	if groupID == "" {
		writeMessage(w, http.StatusBadRequest, "missing groupId")
		return
	}

	requests, err := h.Requests.ListByGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.GroupID == "" || body.AppUserID == "" {
		writeMessage(w, http.StatusBadRequest, "missing groupId or appUserId")
		return
	}

	req, err := h.Requests.Create(r.Context(), body.GroupID, callerID(r), body.AppUserID, body.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

type confirmRequestBody struct {
	RequestID  string `json:"requestId"`
	ActionType string `json:"actionType"`
}

func (h *Handler) handleConfirmRequest(w http.ResponseWriter, r *http.Request) {
	var body confirmRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.RequestID == "" || body.ActionType == "" {
		writeMessage(w, http.StatusBadRequest, "missing requestId or actionType")
		return
	}

	err := h.Requests.Confirm(r.Context(), body.RequestID, callerID(r), models.RequestStatus(body.ActionType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "request decided")
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	collapse := r.URL.Query().Get("collapse") == "true"

	notifications, err := h.Notifications.List(r.Context(), callerID(r), collapse)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

type markReadBody struct {
	ID string `json:"id"`
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	var body markReadBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ID == "" {
		writeMessage(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := h.Notifications.MarkRead(r.Context(), body.ID, callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "notification read")
}
