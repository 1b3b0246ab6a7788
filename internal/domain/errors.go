package domain

import "errors"

var (
	// ErrNoValidLineItems is returned when none of the requested sizes resolve to a variant
	ErrNoValidLineItems = errors.New("no valid line items")

	ErrDesignNotFound      = errors.New("design not found")
	ErrDuplicateShareToken = errors.New("share token already exists")
	ErrShopNotConnected    = errors.New("shop not connected")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidState        = errors.New("invalid or expired oauth state")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrProductNotFound     = errors.New("product not found")
)
