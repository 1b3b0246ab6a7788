package api

import (
	"net/http"
)

// BeginInstall redirects the merchant to Shopify's authorize page
func (h *Handler) BeginInstall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("shop") == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	authURL, err := h.svc.Auth.BeginInstall(r.Context(), q.Get("shop"), q.Get("return_url"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CompleteInstall handles Shopify's OAuth callback
func (h *Handler) CompleteInstall(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.svc.Auth.CompleteInstall(r.Context(), r.URL.Query())
	if err != nil {
		h.logger.Warn().Err(err).Str("shop", r.URL.Query().Get("shop")).Msg("OAuth callback rejected")
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().
		Str("shop", r.URL.Query().Get("shop")).
		Str("returnURL", redirectURL).
		Msg("Redirecting after successful OAuth")
	http.Redirect(w, r, redirectURL, http.StatusFound)
}
