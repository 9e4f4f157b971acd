package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/service"
)

type categoryRequest struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type categoryResponse struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func newCategoryResponse(c model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Slug: c.Slug, Title: c.Title}
}

// ListCategories возвращает все категории меню.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, newCategoryResponse(c))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CreateCategory создаёт категорию меню.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.service.CreateCategory(r.Context(), userID, req.Slug, req.Title)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newCategoryResponse(c))
}

type menuItemRequest struct {
	Title      *string          `json:"title"`
	Price      *decimal.Decimal `json:"price"`
	Featured   *bool            `json:"featured"`
	CategoryID *int64           `json:"category_id"`
}

type menuItemResponse struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Price    string           `json:"price"`
	Featured bool             `json:"featured"`
	Category categoryResponse `json:"category"`
}

func newMenuItemResponse(m model.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:       m.ID,
		Title:    m.Title,
		Price:    m.Price.StringFixed(2),
		Featured: m.Featured,
		Category: newCategoryResponse(m.Category),
	}
}

// requireAll проверяет, что запрос на полную замену содержит все обязательные поля.
func (req menuItemRequest) requireAll() error {
	switch {
	case req.Title == nil:
		return model.Invalid("title", "this field is required")
	case req.Price == nil:
		return model.Invalid("price", "this field is required")
	case req.CategoryID == nil:
		return model.Invalid("category_id", "this field is required")
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Invalid(name, "a valid integer is required")
	}
	return v, nil
}

// ListMenuItems возвращает страницу меню с фильтрами category_id, search,
// ordering, page и perpage.
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	q := service.MenuQuery{
		Search:   r.URL.Query().Get("search"),
		Ordering: r.URL.Query().Get("ordering"),
	}

	categoryID, err := queryInt(r, "category_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q.CategoryID = int64(categoryID)

	if q.Page, err = queryInt(r, "page"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if q.PerPage, err = queryInt(r, "perpage"); err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.service.ListMenuItems(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, newMenuItemResponse(m))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetMenuItem возвращает позицию меню.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.service.GetMenuItem(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newMenuItemResponse(item))
}

// CreateMenuItem создаёт позицию меню.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.requireAll(); err != nil {
		h.writeError(w, r, err)
		return
	}

	item := model.MenuItem{
		Title:    *req.Title,
		Price:    *req.Price,
		Category: model.Category{ID: *req.CategoryID},
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}

	created, err := h.service.CreateMenuItem(r.Context(), userID, item)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newMenuItemResponse(created))
}

// ReplaceMenuItem обрабатывает PUT: все обязательные поля должны быть переданы.
func (h *Handler) ReplaceMenuItem(w http.ResponseWriter, r *http.Request) {
	h.updateMenuItem(w, r, true)
}

// PatchMenuItem обрабатывает PATCH: изменяются только переданные поля.
func (h *Handler) PatchMenuItem(w http.ResponseWriter, r *http.Request) {
	h.updateMenuItem(w, r, false)
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request, full bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "itemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req menuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if full {
		if err := req.requireAll(); err != nil {
			h.writeError(w, r, err)
			return
		}
		if req.Featured == nil {
			req.Featured = new(bool)
		}
	}

	updated, err := h.service.UpdateMenuItem(r.Context(), userID, id, model.MenuItemPatch{
		Title:      req.Title,
		Price:      req.Price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newMenuItemResponse(updated))
}

// DeleteMenuItem удаляет позицию меню.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "itemID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteMenuItem(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
