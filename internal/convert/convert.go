// Package convert builds and unpacks the D-Bus variants used in portal
// option and result dictionaries.
package convert

import (
	"reflect"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

var (
	boolSignature   = dbus.SignatureOfType(reflect.TypeOf(false))
	stringSignature = dbus.SignatureOfType(reflect.TypeOf(""))
	uint32Signature = dbus.SignatureOfType(reflect.TypeOf(uint32(0)))
)

func FromBool(input bool) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, boolSignature)
}

func FromString(input string) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, stringSignature)
}

func FromUint32(input uint32) dbus.Variant {
	return dbus.MakeVariantWithSignature(input, uint32Signature)
}

// String extracts a string entry from a result dictionary.
func String(results map[string]dbus.Variant, key string) (string, error) {
	v, ok := results[key]
	if !ok {
		return "", errors.Errorf("missing %q in portal results", key)
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("portal result %q has type %T, want string", key, v.Value())
	}
	return s, nil
}

// Uint32 converts a property value to uint32.
func Uint32(value any) (uint32, error) {
	if v, ok := value.(dbus.Variant); ok {
		value = v.Value()
	}
	u, ok := value.(uint32)
	if !ok {
		return 0, errors.Errorf("unexpected type %T, want uint32", value)
	}
	return u, nil
}
