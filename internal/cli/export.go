package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vss-tools/internal/app"
	"vss-tools/internal/types"
)

type exportOptions struct {
	Load     loadOptions
	Output   string
	Format   string
	TypesOut string
}

func newExportCommand() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded tree as a flat dump",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd, opts)
		},
	}
	addLoadFlags(cmd, &opts.Load)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file")
	cmd.Flags().StringVar(&opts.Format, "format", string(types.ExportFormatJSON), "Output format (json, yaml or cbor)")
	cmd.Flags().StringVar(&opts.TypesOut, "types-output", "", "Output file for the data-type tree")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("types_output", cmd.Flags().Lookup("types-output"))
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, opts exportOptions) error {
	service := newAppService()
	result, err := service.Export(ctx, app.ExportRequest{
		Load:     resolveLoadRequest(cmd, opts.Load),
		Output:   resolveString(cmd, opts.Output, "output", "output"),
		Format:   types.ExportFormat(resolveString(cmd, opts.Format, "format", "format")),
		TypesOut: resolveString(cmd, opts.TypesOut, "types_output", "types-output"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d nodes: %s\n", result.NodeCount, result.Output)
	if result.TypesOut != "" {
		fmt.Printf("wrote data types: %s\n", result.TypesOut)
	}
	return nil
}
