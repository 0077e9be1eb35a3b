package domain

import (
	"errors"
	"strings"
)

// Kind tags an asset and every quotation issued against it.
type Kind string

const (
	KindHome    Kind = "HOGAR"
	KindVehicle Kind = "VEHICULO"
	KindCondo   Kind = "COPROPIEDAD"
	KindOther   Kind = "OTRO"
)

var Kinds = []Kind{KindHome, KindVehicle, KindCondo, KindOther}

var ErrInvalidKind = errors.New("invalid_asset_kind")

func (k Kind) Valid() bool {
	switch k {
	case KindHome, KindVehicle, KindCondo, KindOther:
		return true
	}
	return false
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(value)))
	if !kind.Valid() {
		return "", ErrInvalidKind
	}
	return kind, nil
}
