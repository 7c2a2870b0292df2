package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/orders/application"
	"github.com/asyncorders/asyncorders/internal/orders/domain"
)

const (
	minQuantity = 1
	maxQuantity = 100
)

type Handler struct {
	log    *slog.Logger
	svc    *application.Service
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, svc *application.Service) *Handler {
	return &Handler{
		log:    log,
		svc:    svc,
		tracer: otel.Tracer("orders-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	return r
}

type createOrderReq struct {
	Items []orderItemReq `json:"items"`
}

type orderItemReq struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type orderResponse struct {
	ID         int                   `json:"id"`
	Status     contracts.OrderStatus `json:"status"`
	TotalPrice int                   `json:"totalPrice"`
	CreatedAt  time.Time             `json:"createdAt"`
	Items      []orderItemResponse   `json:"items"`
}

type orderItemResponse struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Price       int    `json:"price"`
	Quantity    int    `json:"quantity"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		Items: lo.Map(o.Lines, func(l domain.OrderLine, _ int) orderItemResponse {
			return orderItemResponse{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Price:       l.Price,
				Quantity:    l.Quantity,
			}
		}),
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cannot send request with zero items")
		return
	}
	for _, item := range req.Items {
		if item.ProductID < 1 {
			writeError(w, http.StatusBadRequest, "productId must be positive")
			return
		}
		if item.Quantity < minQuantity || item.Quantity > maxQuantity {
			writeError(w, http.StatusBadRequest, "quantity must be between 1 and 100")
			return
		}
	}

	lines := lo.Map(req.Items, func(item orderItemReq, _ int) application.LineRequest {
		return application.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	})

	order, err := h.svc.CreateOrder(ctx, lines)
	if errors.Is(err, application.ErrUnknownProduct) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("create order failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not create order")
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.RetrieveAllOrders(r.Context())
	if err != nil {
		h.log.Error("list orders failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not list orders")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResponse {
		return toOrderResponse(o)
	}))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if errors.Is(err, application.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.log.Error("get order failed", "order_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
