package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vss-tools/internal/types"
)

func TestValidateAcceptsExpandedTree(t *testing.T) {
	root := seatTree(t, []any{"Row[1,2]", []any{"Left", "Right"}})
	require.NoError(t, NewInstanceExpander().Expand(t.Context(), root))

	require.NoError(t, NewValidator(testRegistry(t), Options{}).Validate(t.Context(), root))
}

func TestValidateImplicitBranchDescription(t *testing.T) {
	root := seatTree(t, []any{"Left", "Right"})

	require.NoError(t, NewValidator(testRegistry(t), Options{}).Validate(t.Context(), root))

	err := NewValidator(testRegistry(t), Options{Strict: true}).Validate(t.Context(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Vehicle.Cabin: description is required")
}

func TestValidateReportsProblems(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		build func(t *testing.T) *Node
		want  string
	}{
		{
			name: "orphan property",
			opts: Options{TreeKind: types.TreeKindDataType},
			build: func(t *testing.T) *Node {
				root := mustNode(t, "Types", types.NodeKindBranch, desc("types"))
				mustAttach(t, root, mustNode(t, "Latitude", types.NodeKindProperty, desc("lat", "datatype", "double")))
				return root
			},
			want: "property must be defined under a struct",
		},
		{
			name: "missing description on declared node",
			build: func(t *testing.T) *Node {
				root := mustNode(t, "Vehicle", types.NodeKindBranch, desc("root"))
				speed := mustNode(t, "Speed", types.NodeKindSensor, map[string]any{"datatype": "float"})
				speed.AddSources(types.SourceRef{File: "a.vspec", Line: 3})
				mustAttach(t, root, speed)
				return root
			},
			want: "Vehicle.Speed (a.vspec:3): description is required",
		},
		{
			name: "pending struct reference",
			build: func(t *testing.T) *Node {
				root := mustNode(t, "Vehicle", types.NodeKindBranch, desc("root"))
				mustAttach(t, root, mustNode(t, "Location", types.NodeKindSensor, desc("loc", "datatype", "Position")))
				return root
			},
			want: `unresolved struct reference "Position"`,
		},
		{
			name: "name style when aborting",
			opts: Options{AbortOnNameStyle: true},
			build: func(t *testing.T) *Node {
				root := mustNode(t, "Vehicle", types.NodeKindBranch, desc("root"))
				mustAttach(t, root, mustNode(t, "doorOpen", types.NodeKindSensor, desc("open", "datatype", "boolean")))
				return root
			},
			want: "Vehicle.doorOpen: not CamelCase; Vehicle.doorOpen: boolean name does not start with 'Is' or 'Has'",
		},
		{
			name: "root must be a branch",
			build: func(t *testing.T) *Node {
				return mustNode(t, "Speed", types.NodeKindSensor, desc("speed", "datatype", "float"))
			},
			want: "root must be a branch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator(testRegistry(t), tt.opts).Validate(t.Context(), tt.build(t))
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateNameStyleWarnsByDefault(t *testing.T) {
	root := mustNode(t, "Vehicle", types.NodeKindBranch, desc("root"))
	mustAttach(t, root, mustNode(t, "doorOpen", types.NodeKindSensor, desc("open", "datatype", "boolean")))

	require.NoError(t, NewValidator(testRegistry(t), Options{}).Validate(t.Context(), root))
}

func TestDeleteMarkedAndDropDeprecated(t *testing.T) {
	root := mustRender(t, testRegistry(t), Options{},
		record("Vehicle", types.NodeKindBranch, 1, desc("root")),
		record("Vehicle.Body", types.NodeKindBranch, 2, desc("body", "delete", true)),
		record("Vehicle.Body.IsOpen", types.NodeKindSensor, 3, desc("open", "datatype", "boolean")),
		record("Vehicle.Speed", types.NodeKindSensor, 4, desc("speed", "datatype", "float", "deprecation", "moved")),
		record("Vehicle.IsMoving", types.NodeKindSensor, 5, desc("moving", "datatype", "boolean")),
	)

	assert.Equal(t, 2, DeleteMarked(t.Context(), root))
	assert.Equal(t, []string{"Vehicle", "Vehicle.Speed", "Vehicle.IsMoving"}, fqns(root))

	assert.Equal(t, 1, DropDeprecated(t.Context(), root))
	assert.Equal(t, []string{"Vehicle", "Vehicle.IsMoving"}, fqns(root))

	require.NoError(t, root.SetAttribute("delete", true))
	assert.Equal(t, 0, DeleteMarked(t.Context(), root))
}

func TestFlatEntries(t *testing.T) {
	root := mustRender(t, testRegistry(t), Options{},
		record("Vehicle", types.NodeKindBranch, 1, desc("root")),
		record("Vehicle.Speed", types.NodeKindSensor, 2, desc("speed", "datatype", "float", "unit", "km/h", "min", 0, "owner", "team")),
	)
	require.NoError(t, AssignUUIDs(t.Context(), root))

	entries := FlatEntries(root)
	require.Len(t, entries, 2)
	assert.Equal(t, "Vehicle", entries[0].FQN)
	assert.Equal(t, types.NodeKindBranch, entries[0].Type)
	speed := entries[1]
	assert.Equal(t, "Vehicle.Speed", speed.FQN)
	assert.Equal(t, "float", speed.Datatype)
	assert.Equal(t, "km/h", speed.Unit)
	assert.Equal(t, 0, speed.Min)
	assert.Nil(t, speed.Max)
	assert.Equal(t, NodeUUID("Vehicle.Speed"), speed.UUID)
	assert.Equal(t, map[string]any{"owner": "team"}, speed.Extended)
}

func TestValidateRejectsGraftedUntypedDatatype(t *testing.T) {
	base := baseTree(t)
	overlay := overlayTree(t,
		overlayRecord("Vehicle.Cabin.Mood", types.NodeKindBranch, false, 3, desc("mood", "datatype", "uint8")),
	)
	require.NoError(t, NewMerger().Merge(t.Context(), base, overlay))

	err := NewValidator(testRegistry(t), Options{}).Validate(t.Context(), base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Vehicle.Cabin.Mood (overlay.vspec:3): 'datatype' is not allowed on branch")
}
