package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/validation"
)

type cartLineRequest struct {
	MenuItem int64 `json:"menuitem"`
	Quantity int   `json:"quantity"`
}

type cartLineResponse struct {
	ID            int64  `json:"id"`
	User          int64  `json:"user"`
	MenuItem      int64  `json:"menuitem"`
	MenuItemTitle string `json:"menuitem_title"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Price         string `json:"price"`
}

func newCartLineResponse(l model.CartLine) cartLineResponse {
	return cartLineResponse{
		ID:            l.ID,
		User:          l.UserID,
		MenuItem:      l.MenuItem.ID,
		MenuItemTitle: l.MenuItem.Title,
		Quantity:      l.Quantity,
		UnitPrice:     l.UnitPrice.StringFixed(2),
		Price:         l.Price.StringFixed(2),
	}
}

// ListCart возвращает корзину текущего пользователя.
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	lines, err := h.service.ListCart(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, newCartLineResponse(l))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// AddToCart добавляет позицию меню в корзину текущего пользователя.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req cartLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.MenuItem == 0 {
		h.writeError(w, r, model.Invalid("menuitem", "this field is required"))
		return
	}

	line, err := h.service.AddToCart(r.Context(), userID, req.MenuItem, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newCartLineResponse(line))
}

// ClearCart очищает корзину текущего пользователя.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type orderItemResponse struct {
	ID            int64  `json:"id"`
	MenuItem      int64  `json:"menuitem"`
	MenuItemTitle string `json:"menuitem_title"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Price         string `json:"price"`
}

type orderResponse struct {
	ID           int64               `json:"id"`
	User         int64               `json:"user"`
	DeliveryCrew *int64              `json:"delivery_crew"`
	Status       bool                `json:"status"`
	Total        string              `json:"total"`
	Date         string              `json:"date"`
	Items        []orderItemResponse `json:"order_items"`
}

func newOrderResponse(o model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:            it.ID,
			MenuItem:      it.MenuItem.ID,
			MenuItemTitle: it.MenuItem.Title,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice.StringFixed(2),
			Price:         it.Price.StringFixed(2),
		})
	}

	return orderResponse{
		ID:           o.ID,
		User:         o.UserID,
		DeliveryCrew: o.DeliveryCrew,
		Status:       o.Status,
		Total:        o.Total.StringFixed(2),
		Date:         o.Date.Format(validation.DateLayout),
		Items:        items,
	}
}

type checkoutRequest struct {
	Date string `json:"date"`
}

// ListOrders возвращает заказы, видимые текущему пользователю.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), userID, r.URL.Query().Get("ordering"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Checkout оформляет заказ из корзины текущего пользователя.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	date, err := validation.ParseOrderDate(req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.service.Checkout(r.Context(), userID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(*o))
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*o))
}

// UpdateOrder обрабатывает PUT и PATCH заказа: изменяются только переданные поля.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		h.writeError(w, r, err)
		return
	}

	patch, err := parseOrderPatch(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.service.UpdateOrder(r.Context(), userID, orderID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(*o))
}

// DeleteOrder удаляет заказ.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), userID, orderID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var jsonNull = []byte("null")

// parseOrderPatch отличает отсутствующее поле delivery_crew от явного null.
func parseOrderPatch(raw map[string]json.RawMessage) (model.OrderPatch, error) {
	var patch model.OrderPatch

	if v, ok := raw["delivery_crew"]; ok {
		patch.DeliveryCrewSet = true
		if !bytes.Equal(bytes.TrimSpace(v), jsonNull) {
			var id int64
			if err := json.Unmarshal(v, &id); err != nil {
				return model.OrderPatch{}, model.Invalid("delivery_crew", "incorrect type, expected pk value")
			}
			patch.DeliveryCrew = &id
		}
	}

	if v, ok := raw["status"]; ok {
		status, err := parseStatus(v)
		if err != nil {
			return model.OrderPatch{}, err
		}
		patch.Status = &status
	}

	return patch, nil
}

// parseStatus принимает true/false, а также 0/1 числом или строкой.
func parseStatus(v json.RawMessage) (bool, error) {
	switch string(bytes.Trim(bytes.TrimSpace(v), `"`)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, model.Invalid("status", "must be a valid boolean")
}
