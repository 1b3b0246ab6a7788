package api

import (
	"fmt"
	"net/http"

	"configurator-shopify-layer/internal/application"
	"configurator-shopify-layer/internal/domain"

	"github.com/go-chi/chi/v5"
)

func requireShop(r *http.Request) (string, error) {
	shop := domain.GetShopDomainFromContext(r.Context())
	if shop == "" {
		return "", fmt.Errorf("%w: shop is required (X-Shopify-Shop-Domain header or shop parameter)", domain.ErrInvalidInput)
	}
	return shop, nil
}

// GetProduct returns the variants of a product and the size mapping derived from them
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	shop, err := requireShop(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	product, err := h.svc.Catalog.GetProduct(r.Context(), shop, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// GetInventory returns stock per size
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	shop, err := requireShop(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	inventory, err := h.svc.Catalog.GetInventory(r.Context(), shop, productID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"inventory":  inventory,
	})
}

// ListColorways returns the shop's colorway presets, or the static catalog
func (h *Handler) ListColorways(w http.ResponseWriter, r *http.Request) {
	shop := domain.GetShopDomainFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"colorways": h.svc.Colorways.List(r.Context(), shop),
	})
}

// BuildCart turns a configured order into a cart permalink
func (h *Handler) BuildCart(w http.ResponseWriter, r *http.Request) {
	shop, err := requireShop(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req CartRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.svc.Cart.BuildCheckout(r.Context(), req.toInput(shop))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ValidateCartURL checks a URL against the storefront length limit
func (h *Handler) ValidateCartURL(w http.ResponseWriter, r *http.Request) {
	var req ValidateURLRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Cart.ValidateURL(req.URL))
}

// SaveDesign stores a design and returns it with its share token
func (h *Handler) SaveDesign(w http.ResponseWriter, r *http.Request) {
	var req SaveDesignRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	design, err := h.svc.Designs.Save(r.Context(), application.SaveDesignInput{
		Name:          req.Name,
		Description:   req.Description,
		IsPublic:      req.IsPublic,
		Configuration: req.Configuration,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, design)
}

// LoadDesign returns a public design by share token
func (h *Handler) LoadDesign(w http.ResponseWriter, r *http.Request) {
	design, err := h.svc.Designs.Load(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, design)
}

// ProxyStorefront forwards a read-only GraphQL request and relays Shopify's body
func (h *Handler) ProxyStorefront(w http.ResponseWriter, r *http.Request) {
	shop, err := requireShop(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req StorefrontRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.svc.Proxy.Forward(r.Context(), shop, application.ProxyRequest{
		Query:     req.Query,
		Variables: req.Variables,
		Action:    req.Action,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
