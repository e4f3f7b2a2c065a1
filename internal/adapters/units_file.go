package adapters

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"vss-tools/internal/ports"
	"vss-tools/internal/types"
)

type UnitsFileAdapter struct{}

var _ ports.UnitSourcePort = UnitsFileAdapter{}

func NewUnitsFileAdapter() UnitsFileAdapter {
	return UnitsFileAdapter{}
}

// LoadUnits reads unit files in order. A key defined again in a later file
// replaces the earlier definition.
func (a UnitsFileAdapter) LoadUnits(paths []string) ([]types.Unit, error) {
	var order []string
	byKey := map[string]types.Unit{}
	for _, path := range paths {
		entries, err := loadKeyedFile[types.Unit](path, "units")
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			unit := e.value
			unit.Key = e.key
			if _, ok := byKey[e.key]; ok {
				log.Warn().Str("unit", e.key).Str("file", path).Msg("overwriting unit definition")
			} else {
				order = append(order, e.key)
			}
			byKey[e.key] = unit
		}
	}
	out := make([]types.Unit, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}

func (a UnitsFileAdapter) LoadQuantities(paths []string) ([]types.Quantity, error) {
	var order []string
	byKey := map[string]types.Quantity{}
	for _, path := range paths {
		entries, err := loadKeyedFile[types.Quantity](path, "quantities")
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			quantity := e.value
			quantity.Key = e.key
			if _, ok := byKey[e.key]; ok {
				log.Warn().Str("quantity", e.key).Str("file", path).Msg("overwriting quantity definition")
			} else {
				order = append(order, e.key)
			}
			byKey[e.key] = quantity
		}
	}
	out := make([]types.Quantity, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}

type keyedEntry[T any] struct {
	key   string
	value T
}

// loadKeyedFile decodes a key -> definition mapping, keeping file order.
// Files that wrap the mapping in a single `wrapper` key are accepted too.
func loadKeyedFile[T any](path string, wrapper string) ([]keyedEntry[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("%s file not found: %s", wrapper, path)).
			WithCause(err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: failed to parse %s yaml", path, wrapper)).
			WithCause(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		log.Warn().Str("file", path).Msg("empty " + wrapper + " file")
		return nil, nil
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s:%d: %s file must be a mapping", path, top.Line, wrapper))
	}
	if len(top.Content) == 2 && top.Content[0].Value == wrapper && top.Content[1].Kind == yaml.MappingNode {
		top = top.Content[1]
	}

	out := make([]keyedEntry[T], 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key := top.Content[i]
		value := top.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s:%d: %s entry %q must be a mapping", path, key.Line, wrapper, key.Value))
		}
		var decoded T
		if err := value.Decode(&decoded); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s:%d: invalid %s entry %q", path, key.Line, wrapper, key.Value)).
				WithCause(err)
		}
		out = append(out, keyedEntry[T]{key: key.Value, value: decoded})
	}
	log.Debug().Str("file", path).Int("entries", len(out)).Msg(wrapper + " loaded")
	return out, nil
}
