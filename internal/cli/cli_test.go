package cli

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vss-tools/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"validate", "export", "inspect"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

var loadFlags = []string{
	"vspec", "include-dir", "tree-kind", "overlay", "types",
	"units", "quantities", "expand", "strict",
	"abort-on-unknown-attribute", "abort-on-name-style",
	"extended-attributes", "drop-deprecated",
}

func TestValidateCommandFlags(t *testing.T) {
	cmd := newValidateCommand()
	for _, name := range loadFlags {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestExportCommandFlags(t *testing.T) {
	cmd := newExportCommand()
	for _, name := range append([]string{"output", "format", "types-output"}, loadFlags...) {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
	assert.Equal(t, "json", cmd.Flags().Lookup("format").DefValue)
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := newInspectCommand()
	assert.NotNil(t, cmd.Flags().Lookup("node"))
	assert.NotNil(t, cmd.Flags().Lookup("depth"))
	assert.NotNil(t, cmd.Flags().Lookup("vspec"))
}

func TestExpandDefaultsToTrue(t *testing.T) {
	cmd := newValidateCommand()
	flag := cmd.Flags().Lookup("expand")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestResolveLoadRequestUsesChangedFlags(t *testing.T) {
	opts := validateOptions{}
	cmd := &cobra.Command{Use: "test"}
	addLoadFlags(cmd, &opts.Load)
	require.NoError(t, cmd.Flags().Set("vspec", "spec/VehicleSignalSpecification.vspec"))
	require.NoError(t, cmd.Flags().Set("include-dir", "spec,extra"))
	require.NoError(t, cmd.Flags().Set("tree-kind", "datatype"))
	require.NoError(t, cmd.Flags().Set("strict", "true"))
	require.NoError(t, cmd.Flags().Set("expand", "false"))

	req := resolveLoadRequest(cmd, opts.Load)
	assert.Equal(t, "spec/VehicleSignalSpecification.vspec", req.VspecPath)
	assert.Equal(t, []string{"spec", "extra"}, req.IncludeDirs)
	assert.Equal(t, types.TreeKindDataType, req.TreeKind)
	assert.True(t, req.Strict)
	assert.False(t, req.ExpandInstances)
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			cmd:      nil,
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value returns empty",
			cmd:      nil,
			value:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveStrings(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		values   []string
		expected []string
	}{
		{
			name:     "nil cmd with values returns values",
			cmd:      nil,
			values:   []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "nil cmd empty returns nil",
			cmd:      nil,
			values:   nil,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStrings(tt.cmd, tt.values, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveBool(t *testing.T) {
	assert.True(t, resolveBool(nil, true, "test_key", "test-flag"))
	assert.False(t, resolveBool(nil, false, "test_key", "test-flag"))
}

func TestResolveInt(t *testing.T) {
	assert.Equal(t, 3, resolveInt(nil, 3, "test_key", "test-flag"))
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")
	assert.False(t, flagChanged(nil, ""), "nil cmd with empty name")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
}

func TestFlagChangedAfterSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("Vehicle.Speed (a.vspec:3): missing datatype"),
			expected: 2,
		},
		{
			name: "duplicate unit",
			err: errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("unit symbol km/h defined twice"),
			expected: 2,
		},
		{
			name: "kind change during merge",
			err: errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("cannot change Vehicle.Speed from sensor to branch"),
			expected: 3,
		},
		{
			name: "unresolved struct",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("unresolved struct reference"),
			expected: 4,
		},
		{
			name: "internal error",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("uuid collision"),
			expected: 5,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCodeForError(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name: "errbuilder with msg",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("something broke"),
			expected: "something broke",
		},
		{
			name:     "plain error",
			err:      assert.AnError,
			expected: assert.AnError.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
