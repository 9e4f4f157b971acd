package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/littlelemon/internal/middleware"
	"github.com/mmeshcher/littlelemon/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса Little Lemon.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.Register)
		r.Post("/token/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/users", h.ListUsers)
			r.Get("/users/me", h.Me)
			r.Post("/token/logout", h.Logout)

			r.Get("/categories", h.ListCategories)
			r.Post("/categories", h.CreateCategory)

			r.Route("/menu-items", func(r chi.Router) {
				r.Get("/", h.ListMenuItems)
				r.Post("/", h.CreateMenuItem)
				r.Get("/{itemID}", h.GetMenuItem)
				r.Put("/{itemID}", h.ReplaceMenuItem)
				r.Patch("/{itemID}", h.PatchMenuItem)
				r.Delete("/{itemID}", h.DeleteMenuItem)
			})

			h.mountGroup(r, "/groups/manager/users", model.GroupManager)
			h.mountGroup(r, "/groups/delivery-crew/users", model.GroupDeliveryCrew)

			r.Get("/cart/menu-items", h.ListCart)
			r.Post("/cart/menu-items", h.AddToCart)
			r.Delete("/cart/menu-items", h.ClearCart)

			r.Get("/cart/orders", h.ListOrders)
			r.Post("/cart/orders", h.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.Checkout)
				r.Get("/{orderID}", h.GetOrder)
				r.Put("/{orderID}", h.UpdateOrder)
				r.Patch("/{orderID}", h.UpdateOrder)
				r.Delete("/{orderID}", h.DeleteOrder)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusNotFound, "Not found.")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}

func (h *Handler) mountGroup(r chi.Router, path, group string) {
	g := groupHandlers{h: h, group: group}
	r.Get(path, g.list)
	r.Post(path, g.add)
	r.Delete(path+"/{userID}", g.remove)
}
