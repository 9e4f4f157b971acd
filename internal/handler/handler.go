// Package handler содержит HTTP-обработчики API сервиса Little Lemon.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/littlelemon/internal/auth"
	"github.com/mmeshcher/littlelemon/internal/middleware"
	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, c auth.Claims) error
	Me(ctx context.Context, userID int64) (*model.User, error)
	ListUsers(ctx context.Context, actorID int64) ([]model.User, error)

	ListGroupMembers(ctx context.Context, actorID int64, group string) ([]model.User, error)
	AddToGroup(ctx context.Context, actorID int64, group, username string) error
	RemoveFromGroup(ctx context.Context, actorID int64, group string, userID int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, actorID int64, slug, title string) (model.Category, error)
	ListMenuItems(ctx context.Context, q service.MenuQuery) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error)
	CreateMenuItem(ctx context.Context, actorID int64, item model.MenuItem) (model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, actorID, id int64, patch model.MenuItemPatch) (model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, actorID, id int64) error

	ListCart(ctx context.Context, userID int64) ([]model.CartLine, error)
	AddToCart(ctx context.Context, userID, menuItemID int64, quantity int) (model.CartLine, error)
	ClearCart(ctx context.Context, userID int64) error
	Checkout(ctx context.Context, userID int64, date time.Time) (*model.Order, error)

	ListOrders(ctx context.Context, userID int64, ordering string) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	UpdateOrder(ctx context.Context, userID, orderID int64, patch model.OrderPatch) (*model.Order, error)
	DeleteOrder(ctx context.Context, userID, orderID int64) error
}

// Handler реализует HTTP-обработчики API сервиса Little Lemon.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, messageResponse{Message: msg})
}

// writeError переводит ошибку бизнес-логики в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve       *model.ValidationError
		pd       *model.PermissionDeniedError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusBadRequest, fieldErrorResponse{Field: ve.Field, Message: ve.Reason})
	case errors.As(err, &tooLarge):
		h.writeMessage(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
	case errors.As(err, &pd):
		h.writeMessage(w, http.StatusForbidden, pd.Error())
	case errors.Is(err, model.ErrForbidden):
		h.writeMessage(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, model.ErrEmptyCart):
		h.writeMessage(w, http.StatusNotFound, model.ErrEmptyCart.Error())
	case errors.Is(err, model.ErrNotFound):
		h.writeMessage(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrInvalidCredentials):
		h.writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrConflict):
		h.writeMessage(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		h.writeMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// decodeJSON разбирает тело запроса не длиннее middleware.MaxBodyBytes.
// Пустое тело не считается ошибкой.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return model.Invalid("body", "malformed JSON")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.ErrNotFound
	}
	return id, nil
}

// currentUser возвращает идентификатор пользователя, положенный в контекст AuthMiddleware.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}
