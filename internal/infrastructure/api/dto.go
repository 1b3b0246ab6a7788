package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"configurator-shopify-layer/internal/application"
	"configurator-shopify-layer/internal/domain"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// CartRequest is the body of POST /api/cart
type CartRequest struct {
	ProductID     string                     `json:"product_id" validate:"required,max=128"`
	Sizes         map[string]int             `json:"sizes" validate:"required,min=1,dive,gte=0,lte=999"`
	Configuration domain.DesignConfiguration `json:"configuration"`
	Notes         string                     `json:"notes" validate:"max=2000"`
	DesignID      string                     `json:"design_id" validate:"omitempty,max=64"`
}

func (r CartRequest) toInput(shop string) application.CheckoutInput {
	quantities := make(domain.OrderQuantities, len(r.Sizes))
	for size, qty := range r.Sizes {
		quantities[domain.SizeCode(strings.TrimSpace(size))] += qty
	}
	return application.CheckoutInput{
		Shop:          shop,
		ProductID:     r.ProductID,
		Quantities:    quantities,
		Configuration: r.Configuration,
		Notes:         r.Notes,
		DesignID:      r.DesignID,
	}
}

// ValidateURLRequest is the body of POST /api/cart/validate
type ValidateURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// SaveDesignRequest is the body of POST /api/designs
type SaveDesignRequest struct {
	Name          string                     `json:"name" validate:"required,max=120"`
	Description   string                     `json:"description" validate:"max=1000"`
	IsPublic      bool                       `json:"is_public"`
	Configuration domain.DesignConfiguration `json:"configuration"`
}

// StorefrontRequest is the body of POST /api/storefront
type StorefrontRequest struct {
	Query     string                 `json:"query" validate:"required_without=Action"`
	Variables map[string]interface{} `json:"variables"`
	Action    string                 `json:"action" validate:"omitempty,oneof=product inventory"`
}

// newValidator reports fields under their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return h.validate.Struct(dst)
}
