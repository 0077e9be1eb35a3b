package domain

import (
	"context"
	"errors"
)

// Strategy prices insured values. The default is a flat rate over the total;
// an insurer tariff can be plugged in behind the same interface.
type Strategy interface {
	Rate(context.Context, Input) (Result, error)
}

var (
	ErrInvalidKind     = errors.New("invalid_rating_kind")
	ErrNegativeInsured = errors.New("negative_insured_value")
)
