package handler

import (
	"net/http"

	"github.com/mmeshcher/littlelemon/internal/middleware"
	"github.com/mmeshcher/littlelemon/internal/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newUserResponse(*u))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Username == "" || req.Password == "" {
		h.writeError(w, r, model.Invalid("username", "username and password are required"))
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, tokenResponse{AuthToken: token})
}

// Logout отзывает токен, с которым пришёл запрос.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.service.Me(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(*u))
}

type userListEntry struct {
	userResponse
	UserID int64 `json:"userid"`
}

// ListUsers возвращает список пользователей, видимых текущему пользователю.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]userListEntry, 0, len(users))
	for _, u := range users {
		resp = append(resp, userListEntry{userResponse: newUserResponse(u), UserID: u.ID})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type groupMemberRequest struct {
	Username string `json:"username"`
}

// groupHandlers - обработчики управления составом одной группы.
type groupHandlers struct {
	h     *Handler
	group string
}

func (g groupHandlers) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	members, err := g.h.service.ListGroupMembers(r.Context(), userID, g.group)
	if err != nil {
		g.h.writeError(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(members))
	for _, u := range members {
		resp = append(resp, newUserResponse(u))
	}
	g.h.writeJSON(w, http.StatusOK, resp)
}

func (g groupHandlers) add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req groupMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		g.h.writeError(w, r, err)
		return
	}

	if err := g.h.service.AddToGroup(r.Context(), userID, g.group, req.Username); err != nil {
		g.h.writeError(w, r, err)
		return
	}

	g.h.writeMessage(w, http.StatusCreated, "user added to "+g.group)
}

func (g groupHandlers) remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	memberID, err := pathID(r, "userID")
	if err != nil {
		g.h.writeError(w, r, err)
		return
	}

	if err := g.h.service.RemoveFromGroup(r.Context(), userID, g.group, memberID); err != nil {
		g.h.writeError(w, r, err)
		return
	}

	g.h.writeMessage(w, http.StatusOK, "user removed from "+g.group)
}
