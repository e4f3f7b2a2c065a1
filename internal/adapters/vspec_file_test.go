package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vss-tools/internal/types"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func recordNames(records []types.FlatRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names
}

func TestLoadFlatFixtureWithInclude(t *testing.T) {
	adapter := NewVspecFileAdapter()
	records, err := adapter.LoadFlat(t.Context(), "../../fixtures/spec/VehicleSignalSpecification.vspec", nil, types.TreeKindSignal)
	require.NoError(t, err)

	want := []string{
		"Vehicle",
		"Vehicle.Speed",
		"Vehicle.IsMoving",
		"Vehicle.LowVoltageSystemState",
		"Vehicle.TraveledDistance",
		"Vehicle.Cabin",
		"Vehicle.Cabin.Door",
		"Vehicle.Cabin.Door.IsOpen",
		"Vehicle.Cabin.Door.IsAnyOpen",
		"Vehicle.Cabin.Door.Window",
		"Vehicle.Cabin.Door.Window.Position",
		"Vehicle.Cabin.Seat",
		"Vehicle.Cabin.Seat.Heating",
		"Vehicle.Cabin.Seat.IsOccupied",
		"Vehicle.Cabin.Temperature",
	}
	if diff := cmp.Diff(want, recordNames(records)); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}

	speed := records[1]
	assert.Equal(t, types.NodeKindSensor, speed.Kind)
	assert.True(t, speed.TypeDeclared)
	assert.Equal(t, 9, speed.Source.Line)
	assert.Equal(t, "float", speed.Attributes["datatype"])
	assert.Equal(t, 250, speed.Attributes["max"])
	_, hasType := speed.Attributes["type"]
	assert.False(t, hasType)

	states := records[3]
	assert.Equal(t, []any{"UNDEFINED", "LOCK", "OFF", "ACC", "ON", "START"}, states.Attributes["allowed"])

	door := records[6]
	assert.Equal(t, "Cabin.vspec", filepath.Base(door.Source.File))
	assert.Equal(t, 1, door.Source.Line)
	assert.Equal(t, []any{"Row[1,2]", []any{"DriverSide", "PassengerSide"}}, door.Attributes["instances"])
}

func TestLoadFlatParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "root.vspec", `
Vehicle:
  description: no type given

Vehicle.Speed:
  type: Sensor
  datatype: float
  comment:
  description: speed
`)

	records, err := NewVspecFileAdapter().LoadFlat(t.Context(), path, nil, types.TreeKindSignal)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, types.NodeKindBranch, records[0].Kind)
	assert.False(t, records[0].TypeDeclared)
	assert.Equal(t, 2, records[0].Source.Line)

	assert.Equal(t, types.NodeKindSensor, records[1].Kind)
	assert.Equal(t, map[string]any{"datatype": "float", "description": "speed"}, records[1].Attributes)
}

func TestLoadFlatIncludeDirsAndPrefixes(t *testing.T) {
	dir := t.TempDir()
	includeDir := filepath.Join(dir, "shared")
	writeFile(t, includeDir, "Wheel.vspec", `
Pressure:
  type: sensor
  datatype: uint16
  description: Tire pressure.
`)
	writeFile(t, dir, "nested/Axle.vspec", `
Axle:
  type: branch
  description: Axle.
#include Wheel.vspec Axle.Wheel
`)
	root := writeFile(t, dir, "root.vspec", `
Vehicle:
  type: branch
  description: root
#include nested/Axle.vspec Vehicle.Chassis
`)

	records, err := NewVspecFileAdapter().LoadFlat(t.Context(), root, []string{includeDir}, types.TreeKindSignal)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Vehicle",
		"Vehicle.Chassis.Axle",
		"Vehicle.Chassis.Axle.Wheel.Pressure",
	}, recordNames(records))
	assert.Equal(t, filepath.Join(includeDir, "Wheel.vspec"), records[2].Source.File)
}

func TestLoadFlatDatatypeTree(t *testing.T) {
	records, err := NewVspecFileAdapter().LoadFlat(t.Context(), "../../fixtures/spec/types.vspec", nil, types.TreeKindDataType)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, types.NodeKindStruct, records[2].Kind)
	assert.Equal(t, types.NodeKindProperty, records[3].Kind)
}

func TestLoadFlatErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		treeKind types.TreeKind
		code     errbuilder.ErrCode
		want     string
	}{
		{
			name:    "top level not a mapping",
			content: "- Vehicle\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "top level of a vspec file must be a mapping",
		},
		{
			name:    "entry not a mapping",
			content: "Vehicle: branch\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "Vehicle: entry must be a mapping",
		},
		{
			name:    "allowed not a list",
			content: "Vehicle:\n  type: sensor\n  allowed: ON\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "'allowed' must be a list",
		},
		{
			name:    "unknown type",
			content: "Vehicle:\n  type: signal\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "unknown type signal",
		},
		{
			name:     "signal kind in datatype tree",
			content:  "Types:\n  type: sensor\n",
			treeKind: types.TreeKindDataType,
			code:     errbuilder.CodeInvalidArgument,
			want:     "unknown type sensor",
		},
		{
			name:    "malformed include",
			content: "#include\nVehicle:\n  type: branch\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "malformed include directive",
		},
		{
			name:    "missing include",
			content: "Vehicle:\n  type: branch\n#include Missing.vspec\n",
			code:    errbuilder.CodeNotFound,
			want:    "include file Missing.vspec not found",
		},
		{
			name:    "invalid yaml",
			content: "Vehicle:\n  type: [branch\n",
			code:    errbuilder.CodeInvalidArgument,
			want:    "failed to parse vspec yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "test.vspec", tt.content)
			treeKind := tt.treeKind
			if treeKind == "" {
				treeKind = types.TreeKindSignal
			}
			_, err := NewVspecFileAdapter().LoadFlat(t.Context(), path, nil, treeKind)
			require.Error(t, err)
			assert.Equal(t, tt.code, errbuilder.CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFlatDetectsIncludeCycle(t *testing.T) {
	_, err := NewVspecFileAdapter().LoadFlat(t.Context(), "../../fixtures/cycle/a.vspec", nil, types.TreeKindSignal)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadFlatMissingFile(t *testing.T) {
	_, err := NewVspecFileAdapter().LoadFlat(t.Context(), filepath.Join(t.TempDir(), "missing.vspec"), nil, types.TreeKindSignal)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestLoadFlatHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewVspecFileAdapter().LoadFlat(ctx, "../../fixtures/spec/VehicleSignalSpecification.vspec", nil, types.TreeKindSignal)
	require.ErrorIs(t, err, context.Canceled)
}
