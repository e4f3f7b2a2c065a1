package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"vss-tools/internal/core"
	"vss-tools/internal/types"
)

// Export loads the tree and writes its flat dump, plus the types dump when
// asked for. Files are only written once the load has fully succeeded, and
// either every dump is written or none is.
func (s Service) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return ExportResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	format := req.Format
	if format == "" {
		format = types.ExportFormatJSON
	}
	switch format {
	case types.ExportFormatJSON, types.ExportFormatYAML, types.ExportFormatCBOR:
	default:
		return ExportResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported export format %q", format))
	}
	typesOut := strings.TrimSpace(req.TypesOut)
	if typesOut != "" && len(req.Load.TypesFiles) == 0 {
		return ExportResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("types output requires at least one types file")
	}

	loaded, err := s.Load(ctx, req.Load)
	if err != nil {
		return ExportResult{}, err
	}
	entries := core.FlatEntries(loaded.Root)
	dumps := []types.FlatDump{{Path: output, Entries: entries}}
	if typesOut != "" && loaded.Types != nil {
		dumps = append(dumps, types.FlatDump{Path: typesOut, Entries: core.FlatEntries(loaded.Types)})
	}
	if err := s.Exporter.WriteFlatSet(format, dumps...); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{
		Output:    output,
		NodeCount: len(entries),
		TypesOut:  typesOut,
	}, nil
}
