// Package patch merges pointer-field patch structs into model structs.
package patch

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
)

var (
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
)

// Apply copies every non-nil pointer field of src onto the field of the same
// name in target. target must be a pointer to a struct. A *T patch field may
// update a T or *T target field, and a *decimal.Decimal may update a
// decimal.NullDecimal.
func Apply(target, src any) error {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Pointer || tv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("patch target must be a struct pointer, got %T", target)
	}
	tv = tv.Elem()

	pv := reflect.ValueOf(src)
	if pv.Kind() == reflect.Pointer {
		if pv.IsNil() {
			return nil
		}
		pv = pv.Elem()
	}
	if pv.Kind() != reflect.Struct {
		return fmt.Errorf("patch must be a struct, got %T", src)
	}

	pt := pv.Type()
	for i := 0; i < pt.NumField(); i++ {
		field := pt.Field(i)
		value := pv.Field(i)
		if field.Type.Kind() != reflect.Pointer || value.IsNil() {
			continue
		}

		dst := tv.FieldByName(field.Name)
		if !dst.IsValid() || !dst.CanSet() {
			return fmt.Errorf("patch field %s has no target on %s", field.Name, tv.Type())
		}

		elem := value.Elem()
		switch {
		case dst.Type() == elem.Type():
			dst.Set(elem)
		case dst.Type() == field.Type:
			copied := reflect.New(elem.Type())
			copied.Elem().Set(elem)
			dst.Set(copied)
		case dst.Type() == nullDecimalType && elem.Type() == decimalType:
			dst.Set(reflect.ValueOf(decimal.NullDecimal{Decimal: elem.Interface().(decimal.Decimal), Valid: true}))
		default:
			return fmt.Errorf("patch field %s: cannot assign %s to %s", field.Name, elem.Type(), dst.Type())
		}
	}
	return nil
}
