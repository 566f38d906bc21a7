package pricebook

import "errors"

var (
	ErrInvalidRatesDocument = errors.New("invalid pricebook rates document")
	ErrNegativeRate         = errors.New("pricebook rates must be non-negative")
)
