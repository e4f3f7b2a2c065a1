package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"vss-tools/internal/types"
)

// Registry holds the units and quantities a load validates against. It is
// built once per run and only read afterwards.
type Registry struct {
	units      map[string]types.Unit
	quantities map[string]types.Quantity
}

// NewRegistry checks units against quantities and the datatype table.
// Unit symbols must be unique. When no quantities are given the quantity
// reference of a unit is not checked.
func NewRegistry(units []types.Unit, quantities []types.Quantity) (Registry, error) {
	reg := Registry{
		units:      map[string]types.Unit{},
		quantities: map[string]types.Quantity{},
	}
	for _, quantity := range quantities {
		reg.quantities[quantity.Key] = quantity
	}
	symbols := map[string]string{}
	for _, unit := range units {
		if len(reg.quantities) > 0 {
			if _, ok := reg.quantities[unit.Quantity]; !ok {
				return Registry{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("unit %q: invalid quantity %q", unit.Key, unit.Quantity))
			}
		}
		for _, datatype := range unit.AllowedDatatypes {
			if !IsPrimitiveDatatype(datatype) {
				return Registry{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("unit %q: invalid datatype %q", unit.Key, datatype))
			}
		}
		if unit.Unit != "" {
			if other, ok := symbols[unit.Unit]; ok && other != unit.Key {
				return Registry{}, errbuilder.New().
					WithCode(errbuilder.CodeAlreadyExists).
					WithMsg(fmt.Sprintf("duplicated unit %q used by %s and %s", unit.Unit, other, unit.Key))
			}
			symbols[unit.Unit] = unit.Key
		}
		reg.units[unit.Key] = unit
	}
	return reg, nil
}

func (r Registry) Unit(key string) (types.Unit, bool) {
	unit, ok := r.units[key]
	return unit, ok
}

func (r Registry) Quantity(key string) (types.Quantity, bool) {
	quantity, ok := r.quantities[key]
	return quantity, ok
}

func (r Registry) UnitKeys() []string {
	keys := make([]string, 0, len(r.units))
	for key := range r.units {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r Registry) QuantityKeys() []string {
	keys := make([]string, 0, len(r.quantities))
	for key := range r.quantities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CheckUnit validates a unit token against the registry and the datatype
// it is combined with. It returns an empty string when the pair is legal.
func (r Registry) CheckUnit(unitKey string, dt Datatype) string {
	unit, ok := r.units[unitKey]
	if !ok {
		return fmt.Sprintf("unknown unit %q", unitKey)
	}
	if dt.IsStruct() {
		return fmt.Sprintf("cannot use unit %q with struct datatype %q", unitKey, dt.Token)
	}
	if !dt.IsPrimitive() || len(unit.AllowedDatatypes) == 0 {
		return ""
	}
	for _, allowed := range unit.AllowedDatatypes {
		if IsSubtypeOf(dt.Base, strings.TrimSuffix(allowed, arraySuffix)) {
			return ""
		}
	}
	return fmt.Sprintf("datatype %q is not allowed for unit %q", dt.Token, unitKey)
}
