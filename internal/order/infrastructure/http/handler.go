package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-submission-service/internal/order/application"
	"github.com/dmehra2102/order-submission-service/internal/order/domain"
)

const readNote = "Thank you for shopping!"

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
	submit  []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithSubmitMiddleware wraps only the submit route, e.g. with idempotency.
func WithSubmitMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.submit = append(h.submit, mw...) }
}

func NewHandler(log *slog.Logger, service *application.Service, opts ...Option) *Handler {
	h := &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type createOrderReq struct {
	ID       string             `json:"id"`
	Customer string             `json:"customer"`
	Items    []domain.OrderItem `json:"items"`
}

type orderResp struct {
	ID        string             `json:"id"`
	Customer  string             `json:"customer"`
	Total     *decimal.Decimal   `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
	Items     []domain.OrderItem `json:"items,omitempty"`
	Note      string             `json:"note"`
}

type checkStockReq struct {
	SKU string `json:"sku"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.createOrder)
	r.Get("/orders/high-value", h.highValueOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.With(h.submit...).Post("/orders/{id}/submit", h.submitOrder)
	r.Get("/orders/{id}/stock", h.orderWithStock)
	r.Post("/stock/check", h.checkStock)

	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	o, err := h.service.CreateOrder(ctx, domain.NewOrder(req.ID, req.Customer, req.Items))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResp(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(o))
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := h.service.SubmitOrder(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) highValueOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetHighValueOrders")
	defer span.End()

	minTotal, err := decimal.NewFromString(r.URL.Query().Get("minTotal"))
	if err != nil {
		http.Error(w, "minTotal must be a decimal number", http.StatusBadRequest)
		return
	}
	orders, err := h.service.GetHighValueOrders(ctx, minTotal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResp(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) checkStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CheckStock")
	defer span.End()

	var req checkStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SKU == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	res, err := h.service.CheckStock(ctx, req.SKU)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) orderWithStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrderWithStock")
	defer span.End()

	rep, err := h.service.GetOrderWithStock(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Reason, http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Order "+chi.URLParam(r, "id")+" not found", http.StatusNotFound)
	case errors.Is(err, application.ErrStockNotConfigured):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toResp(o domain.Order) orderResp {
	resp := orderResp{
		ID:        o.ID,
		Customer:  o.Customer,
		CreatedAt: o.CreatedAt,
		Items:     o.Items,
		Note:      readNote,
	}
	if o.Total.Valid {
		t := o.Total.Decimal
		resp.Total = &t
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
