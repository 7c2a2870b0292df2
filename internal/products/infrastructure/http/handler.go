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

	"github.com/asyncorders/asyncorders/internal/products/application"
	"github.com/asyncorders/asyncorders/internal/products/domain"
	"github.com/asyncorders/asyncorders/internal/products/infrastructure/postgres"
)

type Handler struct {
	log *slog.Logger
	svc *application.Service
}

func NewHandler(log *slog.Logger, svc *application.Service) *Handler {
	return &Handler{log: log, svc: svc}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Put("/products/{mkt}", h.updateProduct)
	r.Delete("/products/{mkt}", h.deleteProduct)
	return r
}

type createProductReq struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

type updateProductReq struct {
	Name     *string `json:"name"`
	Price    *int    `json:"price"`
	Quantity *int    `json:"quantity"`
}

type productResponse struct {
	ID         int       `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name"`
	Price      int       `json:"price"`
	NumInStock int       `json:"numInStock"`
	Mkt        string    `json:"mkt"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		CreatedAt:  p.CreatedAt,
		Name:       p.Name,
		Price:      p.Price,
		NumInStock: p.NumInStock,
		Mkt:        p.Mkt,
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name == "" || req.Price < 1 || req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "name, positive price and non-negative quantity are required")
		return
	}

	p, err := h.svc.AddProduct(r.Context(), req.Name, req.Price, req.Quantity)
	if err != nil {
		h.log.Error("create product failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not create product")
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.RetrieveAllProducts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.log.Error("list products failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not list products")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(products, func(p domain.Product, _ int) productResponse {
		return toProductResponse(p)
	}))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.log.Error("get product failed", "product_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "could not fetch product")
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	mkt := chi.URLParam(r, "mkt")

	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Price != nil && *req.Price < 1 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must be non-negative")
		return
	}

	p, err := h.svc.UpdateProduct(r.Context(), mkt, domain.ProductUpdate{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.log.Error("update product failed", "mkt", mkt, "err", err)
		writeError(w, http.StatusInternalServerError, "could not update product")
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	mkt := chi.URLParam(r, "mkt")

	err := h.svc.DeleteProduct(r.Context(), mkt)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.log.Error("delete product failed", "mkt", mkt, "err", err)
		writeError(w, http.StatusInternalServerError, "could not delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
