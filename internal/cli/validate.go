package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vss-tools/internal/app"
	"vss-tools/internal/shared"
	"vss-tools/internal/types"
)

// loadOptions are the flags shared by every command that loads a tree.
type loadOptions struct {
	Vspec                   string
	IncludeDirs             []string
	TreeKind                string
	Overlays                []string
	Types                   []string
	Units                   []string
	Quantities              []string
	Expand                  bool
	Strict                  bool
	AbortOnUnknownAttribute bool
	AbortOnNameStyle        bool
	ExtendedAttributes      []string
	DropDeprecated          bool
}

func addLoadFlags(cmd *cobra.Command, opts *loadOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Vspec, "vspec", "s", "", "Root vspec file")
	flags.StringSliceVarP(&opts.IncludeDirs, "include-dir", "I", nil, "Directories searched for #include targets")
	flags.StringVar(&opts.TreeKind, "tree-kind", string(types.TreeKindSignal), "Tree kind (signal or datatype)")
	flags.StringSliceVarP(&opts.Overlays, "overlay", "l", nil, "Overlay vspec files merged in order")
	flags.StringSliceVar(&opts.Types, "types", nil, "Data-type vspec files holding struct definitions")
	flags.StringSliceVarP(&opts.Units, "units", "u", nil, "Unit definition files")
	flags.StringSliceVarP(&opts.Quantities, "quantities", "q", nil, "Quantity definition files")
	flags.BoolVar(&opts.Expand, "expand", true, "Expand instance declarations")
	flags.BoolVar(&opts.Strict, "strict", false, "Treat warnings as errors")
	flags.BoolVar(&opts.AbortOnUnknownAttribute, "abort-on-unknown-attribute", false, "Fail on attributes outside the core set")
	flags.BoolVar(&opts.AbortOnNameStyle, "abort-on-name-style", false, "Fail on naming style violations")
	flags.StringSliceVarP(&opts.ExtendedAttributes, "extended-attributes", "e", nil, "Additional accepted attribute names")
	flags.BoolVar(&opts.DropDeprecated, "drop-deprecated", false, "Remove nodes carrying a deprecation note")

	_ = viper.BindPFlag("vspec", flags.Lookup("vspec"))
	_ = viper.BindPFlag("include_dirs", flags.Lookup("include-dir"))
	_ = viper.BindPFlag("tree_kind", flags.Lookup("tree-kind"))
	_ = viper.BindPFlag("overlays", flags.Lookup("overlay"))
	_ = viper.BindPFlag("types", flags.Lookup("types"))
	_ = viper.BindPFlag("units", flags.Lookup("units"))
	_ = viper.BindPFlag("quantities", flags.Lookup("quantities"))
	_ = viper.BindPFlag("expand", flags.Lookup("expand"))
	_ = viper.BindPFlag("strict", flags.Lookup("strict"))
	_ = viper.BindPFlag("abort_on_unknown_attribute", flags.Lookup("abort-on-unknown-attribute"))
	_ = viper.BindPFlag("abort_on_name_style", flags.Lookup("abort-on-name-style"))
	_ = viper.BindPFlag("extended_attributes", flags.Lookup("extended-attributes"))
	_ = viper.BindPFlag("drop_deprecated", flags.Lookup("drop-deprecated"))
}

func resolveLoadRequest(cmd *cobra.Command, opts loadOptions) app.LoadRequest {
	return app.LoadRequest{
		VspecPath:               resolveString(cmd, opts.Vspec, "vspec", "vspec"),
		IncludeDirs:             resolveStrings(cmd, opts.IncludeDirs, "include_dirs", "include-dir"),
		TreeKind:                types.TreeKind(resolveString(cmd, opts.TreeKind, "tree_kind", "tree-kind")),
		Overlays:                resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		TypesFiles:              resolveStrings(cmd, opts.Types, "types", "types"),
		UnitFiles:               resolveStrings(cmd, opts.Units, "units", "units"),
		QuantityFiles:           resolveStrings(cmd, opts.Quantities, "quantities", "quantities"),
		ExpandInstances:         resolveBool(cmd, opts.Expand, "expand", "expand"),
		Strict:                  resolveBool(cmd, opts.Strict, "strict", "strict"),
		AbortOnUnknownAttribute: resolveBool(cmd, opts.AbortOnUnknownAttribute, "abort_on_unknown_attribute", "abort-on-unknown-attribute"),
		AbortOnNameStyle:        resolveBool(cmd, opts.AbortOnNameStyle, "abort_on_name_style", "abort-on-name-style"),
		ExtendedAttributes:      resolveStrings(cmd, opts.ExtendedAttributes, "extended_attributes", "extended-attributes"),
		DropDeprecated:          resolveBool(cmd, opts.DropDeprecated, "drop_deprecated", "drop-deprecated"),
	}
}

type validateOptions struct {
	Load loadOptions
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load a vspec tree and report every violation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	addLoadFlags(cmd, &opts.Load)
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		Load: resolveLoadRequest(cmd, opts.Load),
	})
	if err != nil {
		return err
	}
	fmt.Printf("validated: %s (%d nodes)\n", result.Root, result.NodeCount)
	for _, kind := range shared.SortedKeys(kindCounts(result.Kinds)) {
		fmt.Printf("- %s: %d\n", kind, result.Kinds[types.NodeKind(kind)])
	}
	fmt.Printf("units: %d, quantities: %d\n", len(result.Units), len(result.Quantities))
	return nil
}

func kindCounts(kinds map[types.NodeKind]int) map[string]int {
	out := make(map[string]int, len(kinds))
	for kind, count := range kinds {
		out[string(kind)] = count
	}
	return out
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
