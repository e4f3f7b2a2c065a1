package ports

import "vss-tools/internal/types"

type UnitSourcePort interface {
	LoadUnits(paths []string) ([]types.Unit, error)
	LoadQuantities(paths []string) ([]types.Quantity, error)
}
