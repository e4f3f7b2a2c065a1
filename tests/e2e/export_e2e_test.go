package e2e

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vss-tools/tests/testutil"
)

func TestExportCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	outDir := t.TempDir()
	output := filepath.Join(outDir, "vss.json")

	cmd := exec.Command("go", "run", "./cmd/vss-tools", "export",
		"--vspec", "fixtures/spec/VehicleSignalSpecification.vspec",
		"--overlay", "fixtures/spec/overlay.vspec",
		"--output", output,
		"--format", "json",
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	require.FileExists(t, output)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var dump map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &dump))
	assert.Contains(t, dump, "Vehicle.Cabin.Seat.Row1.Massage")
	assert.NotContains(t, dump, "Vehicle.Cabin.Seat.Row2.IsOccupied")
	assert.Equal(t, "actuator", dump["Vehicle.Cabin.Door.Row1.DriverSide.IsOpen"]["type"])
}

func TestValidateCommandReportsIncludeCycle(t *testing.T) {
	root := testutil.RepoRoot(t)

	cmd := exec.Command("go", "run", "./cmd/vss-tools", "validate",
		"--vspec", "fixtures/cycle/a.vspec",
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(out), "include cycle")
}
