package ports

import "vss-tools/internal/types"

type ExportPort interface {
	WriteFlat(path string, format types.ExportFormat, entries []types.FlatEntry) error
	WriteFlatSet(format types.ExportFormat, dumps ...types.FlatDump) error
}
