package core

import (
	"math/big"
	"strings"
)

const arraySuffix = "[]"

type primitive struct {
	name     string
	check    func(any) bool
	subtypes []string
	numeric  bool
}

func intRange(signed bool, bits uint) (*big.Int, *big.Int) {
	one := big.NewInt(1)
	if signed {
		hi := new(big.Int).Sub(new(big.Int).Lsh(one, bits-1), one)
		lo := new(big.Int).Neg(new(big.Int).Lsh(one, bits-1))
		return lo, hi
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(one, bits), one)
	return big.NewInt(0), hi
}

func integerValue(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	default:
		return nil, false
	}
}

func floatValue(value any) (float64, bool) {
	if v, ok := value.(float64); ok {
		return v, true
	}
	if v, ok := value.(float32); ok {
		return float64(v), true
	}
	if i, ok := integerValue(value); ok {
		f, _ := new(big.Float).SetInt(i).Float64()
		return f, true
	}
	return 0, false
}

func eachValue(value any, check func(any) bool) bool {
	if list, ok := value.([]any); ok {
		for _, item := range list {
			if !check(item) {
				return false
			}
		}
		return true
	}
	return check(value)
}

func intChecker(signed bool, bits uint) func(any) bool {
	lo, hi := intRange(signed, bits)
	return func(value any) bool {
		return eachValue(value, func(item any) bool {
			i, ok := integerValue(item)
			if !ok {
				return false
			}
			return i.Cmp(lo) >= 0 && i.Cmp(hi) <= 0
		})
	}
}

func isBool(value any) bool {
	return eachValue(value, func(item any) bool {
		_, ok := item.(bool)
		return ok
	})
}

func isFloat(value any) bool {
	return eachValue(value, func(item any) bool {
		_, ok := floatValue(item)
		return ok
	})
}

func isString(value any) bool {
	return eachValue(value, func(item any) bool {
		_, ok := item.(string)
		return ok
	})
}

var primitives = map[string]primitive{
	"uint8":   {name: "uint8", check: intChecker(false, 8), numeric: true},
	"int8":    {name: "int8", check: intChecker(true, 8), numeric: true},
	"uint16":  {name: "uint16", check: intChecker(false, 16), subtypes: []string{"uint8"}, numeric: true},
	"int16":   {name: "int16", check: intChecker(true, 16), subtypes: []string{"int8"}, numeric: true},
	"uint32":  {name: "uint32", check: intChecker(false, 32), subtypes: []string{"uint16", "uint8"}, numeric: true},
	"int32":   {name: "int32", check: intChecker(true, 32), subtypes: []string{"int16", "int8"}, numeric: true},
	"uint64":  {name: "uint64", check: intChecker(false, 64), subtypes: []string{"uint32", "uint16", "uint8"}, numeric: true},
	"int64":   {name: "int64", check: intChecker(true, 64), subtypes: []string{"int32", "int16", "int8"}, numeric: true},
	"boolean": {name: "boolean", check: isBool},
	"float":   {name: "float", check: isFloat, numeric: true},
	"double":  {name: "double", check: isFloat, numeric: true},
	"string":  {name: "string", check: isString},
	"numeric": {
		name:  "numeric",
		check: isFloat,
		subtypes: []string{
			"int64", "int32", "int16", "int8",
			"uint64", "uint32", "uint16", "uint8",
			"float", "double",
		},
		numeric: true,
	},
}

// IsPrimitiveDatatype reports whether token names a primitive datatype,
// with or without the array suffix.
func IsPrimitiveDatatype(token string) bool {
	_, ok := primitives[strings.TrimSuffix(token, arraySuffix)]
	return ok
}

// IsSubtypeOf reports whether check is the same as or a subtype of base.
// Both are primitive names without the array suffix.
func IsSubtypeOf(check string, base string) bool {
	if check == base {
		return true
	}
	p, ok := primitives[base]
	if !ok {
		return false
	}
	for _, sub := range p.subtypes {
		if sub == check {
			return true
		}
	}
	return false
}

type DatatypeKind int

const (
	DatatypeNone DatatypeKind = iota
	DatatypePrimitive
	DatatypeStruct
)

// Datatype is the decoded `datatype` attribute of a node. Struct
// references start out pending and carry the resolved struct FQN once the
// reference pass has run.
type Datatype struct {
	Kind     DatatypeKind
	Token    string
	Base     string
	Array    bool
	Resolved string
}

func ParseDatatype(token string) Datatype {
	token = strings.TrimSpace(token)
	if token == "" {
		return Datatype{}
	}
	base := strings.TrimSuffix(token, arraySuffix)
	dt := Datatype{Token: token, Base: base, Array: base != token}
	if _, ok := primitives[base]; ok {
		dt.Kind = DatatypePrimitive
	} else {
		dt.Kind = DatatypeStruct
	}
	return dt
}

func (d Datatype) IsSet() bool {
	return d.Kind != DatatypeNone
}

func (d Datatype) IsPrimitive() bool {
	return d.Kind == DatatypePrimitive
}

func (d Datatype) IsStruct() bool {
	return d.Kind == DatatypeStruct
}

// IsPending reports a struct reference that has not been resolved yet.
func (d Datatype) IsPending() bool {
	return d.Kind == DatatypeStruct && d.Resolved == ""
}

// IsQualified reports whether a struct reference is written as a dotted
// path rather than a bare struct name.
func (d Datatype) IsQualified() bool {
	return strings.Contains(d.Base, ".")
}

func (d Datatype) IsNumeric() bool {
	if d.Kind != DatatypePrimitive {
		return false
	}
	return primitives[d.Base].numeric
}

// Accepts reports whether value fits the datatype. Array datatypes expect
// a list; scalar datatypes expect a single value.
func (d Datatype) Accepts(value any) bool {
	if d.Kind != DatatypePrimitive {
		return true
	}
	_, isList := value.([]any)
	if isList != d.Array {
		return false
	}
	return primitives[d.Base].check(value)
}

// AcceptsElement checks a single element against the base datatype, which
// is how `allowed` entries and min/max are compared.
func (d Datatype) AcceptsElement(value any) bool {
	if d.Kind != DatatypePrimitive {
		return true
	}
	if _, isList := value.([]any); isList {
		return false
	}
	return primitives[d.Base].check(value)
}

// String renders the datatype the way exporters print it: the primitive
// token, or the resolved struct FQN with its array suffix.
func (d Datatype) String() string {
	switch d.Kind {
	case DatatypeNone:
		return ""
	case DatatypeStruct:
		if d.Resolved != "" {
			if d.Array {
				return d.Resolved + arraySuffix
			}
			return d.Resolved
		}
	}
	return d.Token
}
