package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vss-tools/internal/app"
	"vss-tools/internal/types"
)

type inspectOptions struct {
	Load  loadOptions
	Node  string
	Depth int
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the attributes, sources and children of one node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	addLoadFlags(cmd, &opts.Load)
	cmd.Flags().StringVarP(&opts.Node, "node", "n", "", "Fully qualified node name")
	cmd.Flags().IntVar(&opts.Depth, "depth", 1, "Levels of descendants to list")
	_ = viper.BindPFlag("node", cmd.Flags().Lookup("node"))
	_ = viper.BindPFlag("depth", cmd.Flags().Lookup("depth"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		Load:  resolveLoadRequest(cmd, opts.Load),
		FQN:   resolveString(cmd, opts.Node, "node", "node"),
		Depth: resolveInt(cmd, opts.Depth, "depth", "depth"),
	})
	if err != nil {
		return err
	}

	entry := result.Entry
	fmt.Printf("%s (%s)\n", entry.FQN, entry.Type)
	printField("datatype", entry.Datatype)
	printField("unit", entry.Unit)
	if result.Quantity != nil {
		printField("quantity", result.Quantity.Key)
	}
	if entry.Min != nil {
		fmt.Printf("  min: %v\n", entry.Min)
	}
	if entry.Max != nil {
		fmt.Printf("  max: %v\n", entry.Max)
	}
	if len(entry.Allowed) > 0 {
		fmt.Printf("  allowed: %v\n", entry.Allowed)
	}
	if entry.Default != nil {
		fmt.Printf("  default: %v\n", entry.Default)
	}
	printField("description", entry.Description)
	printField("comment", entry.Comment)
	printField("deprecation", entry.Deprecation)
	printField("uuid", entry.UUID)
	fmt.Printf("  sources: %s\n", types.FormatSources(result.Sources))
	if len(result.Children) > 0 {
		fmt.Println("children:")
		fmt.Printf("  %s\n", strings.Join(result.Children, "\n  "))
	}
	return nil
}

func printField(name string, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %s: %s\n", name, value)
}
