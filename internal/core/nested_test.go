package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vss-tools/internal/types"
)

func record(name string, kind types.NodeKind, line int, attrs map[string]any) types.FlatRecord {
	return types.FlatRecord{
		Name:         name,
		Kind:         kind,
		TypeDeclared: true,
		Attributes:   attrs,
		Source:       types.SourceRef{File: "test.vspec", Line: line},
	}
}

func TestNestedBuilderCreatesImplicitBranches(t *testing.T) {
	root, err := NewNestedBuilder().Build(t.Context(), []types.FlatRecord{
		record("Vehicle", types.NodeKindBranch, 1, map[string]any{"description": "root"}),
		record("Vehicle.Cabin.Seat", types.NodeKindBranch, 2, map[string]any{"description": "seat"}),
	})
	require.NoError(t, err)

	require.Len(t, root.Children, 1)
	cabin := root.Children[0]
	assert.Equal(t, "Cabin", cabin.Name)
	assert.True(t, cabin.Implicit)
	assert.False(t, cabin.KindDeclared)
	assert.Empty(t, cabin.Sources)
	require.Len(t, cabin.Children, 1)
	assert.False(t, cabin.Children[0].Implicit)
}

func TestNestedBuilderMergesRedeclaredNodes(t *testing.T) {
	root, err := NewNestedBuilder().Build(t.Context(), []types.FlatRecord{
		record("Vehicle", types.NodeKindBranch, 1, map[string]any{"description": "root"}),
		record("Vehicle.Cabin.Door", types.NodeKindBranch, 2, map[string]any{"description": "door"}),
		record("Vehicle.Cabin", types.NodeKindBranch, 5, map[string]any{"description": "cabin"}),
		record("Vehicle.Cabin", types.NodeKindBranch, 9, map[string]any{"comment": "again"}),
	})
	require.NoError(t, err)

	cabin := root.child("Cabin")
	require.NotNil(t, cabin)
	assert.False(t, cabin.Implicit)
	assert.True(t, cabin.KindDeclared)
	assert.Equal(t, map[string]any{"description": "cabin", "comment": "again"}, cabin.Attributes)
	assert.Len(t, cabin.Sources, 2)
	assert.NotNil(t, cabin.child("Door"))
}

func TestNestedBuilderErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []types.FlatRecord
		want    string
	}{
		{
			name: "no nodes",
			want: "vspec contains no nodes",
		},
		{
			name: "two roots",
			records: []types.FlatRecord{
				record("Vehicle", types.NodeKindBranch, 1, nil),
				record("Body", types.NodeKindBranch, 2, nil),
			},
			want: "exactly one root, found 2: Vehicle, Body",
		},
		{
			name: "root is a signal",
			records: []types.FlatRecord{
				record("Speed", types.NodeKindSensor, 1, nil),
			},
			want: "root node must be a branch",
		},
		{
			name: "child of a signal",
			records: []types.FlatRecord{
				record("Vehicle", types.NodeKindBranch, 1, nil),
				record("Vehicle.Speed", types.NodeKindSensor, 2, nil),
				record("Vehicle.Speed.Unit", types.NodeKindSensor, 3, nil),
			},
			want: "Vehicle.Speed is a sensor and cannot have children",
		},
		{
			name: "empty segment",
			records: []types.FlatRecord{
				record("Vehicle..Speed", types.NodeKindSensor, 1, nil),
			},
			want: "invalid name",
		},
		{
			name: "implicit branch under struct",
			records: []types.FlatRecord{
				record("Types", types.NodeKindBranch, 1, nil),
				record("Types.Position", types.NodeKindStruct, 2, nil),
				record("Types.Position.Inner.Lat", types.NodeKindProperty, 3, nil),
			},
			want: "cannot create implicit branch Types.Position.Inner under struct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNestedBuilder().Build(t.Context(), tt.records)
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNestedBuilderDeclaredTypeReplacesImplicit(t *testing.T) {
	untyped := record("Vehicle.Body", types.NodeKindBranch, 2, map[string]any{"description": "body"})
	untyped.TypeDeclared = false

	root, err := NewNestedBuilder().Build(t.Context(), []types.FlatRecord{
		record("Vehicle", types.NodeKindBranch, 1, nil),
		untyped,
		record("Vehicle.Body", types.NodeKindSensor, 5, map[string]any{"datatype": "uint8"}),
	})
	require.NoError(t, err)

	body := root.child("Body")
	require.NotNil(t, body)
	assert.Equal(t, types.NodeKindSensor, body.Kind)
	assert.True(t, body.KindDeclared)
}
