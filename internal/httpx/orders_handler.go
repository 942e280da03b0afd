package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validator "github.com/go-playground/validator/v10"

	"shop-backend/internal/orders"
)

type OrdersHandler struct {
	Svc      *orders.Service
	validate *validator.Validate
}

func NewOrdersHandler(svc *orders.Service) *OrdersHandler {
	return &OrdersHandler{Svc: svc, validate: validator.New()}
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.update)
	r.Delete("/orders/{id}", h.delete)
}

type createOrderReq struct {
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Customer      orders.Customer    `json:"customer" validate:"required"`
	Products      []orders.ItemInput `json:"products" validate:"required,min=1,dive"`
}

type updateOrderReq struct {
	Status *string `json:"status"`
	Paid   *string `json:"paid"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(traced(r), 15*time.Second)
	defer cancel()

	v, err := h.Svc.Create(ctx, orders.CreateInput{
		PaymentMethod: orders.PaymentMethod(req.PaymentMethod),
		Customer:      req.Customer,
		Items:         req.Products,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created",
		"id":      v.ID,
		"total":   v.Total,
	})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vs, err := h.Svc.List(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if vs == nil {
		vs = []orders.View{}
	}
	writeJSON(w, http.StatusOK, vs)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Svc.Get(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == nil && req.Paid == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	var newStatus *orders.Status
	if req.Status != nil {
		s := orders.Status(*req.Status)
		newStatus = &s
	}
	var newPaid *orders.Paid
	if req.Paid != nil {
		p := orders.Paid(*req.Paid)
		newPaid = &p
	}

	ctx, cancel := context.WithTimeout(traced(r), 5*time.Second)
	defer cancel()

	if _, err := h.Svc.Update(ctx, id, newStatus, newPaid); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order updated", "id": id})
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	ctx, cancel := context.WithTimeout(traced(r), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order deleted", "id": id})
}

func traced(r *http.Request) context.Context {
	return orders.WithTrace(r.Context(), middleware.GetReqID(r.Context()))
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return "invalid field " + ve[0].Namespace()
	}
	return "validation failed"
}
