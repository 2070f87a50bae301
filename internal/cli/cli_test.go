package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrview/pkg/ndarray"
	"arrview/pkg/persistence"
	"arrview/pkg/raster"
	"arrview/pkg/roi"
	"arrview/pkg/slicer"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "arrview.yaml")}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeV1(t *testing.T, shape ndarray.Shape, names ...string) string {
	t.Helper()
	var rois []*roi.ROI
	for i, name := range names {
		mask, err := ndarray.NewMask(shape)
		require.NoError(t, err)
		for j := 0; j <= i; j++ {
			mask.Data()[j] = true
		}
		rois = append(rois, roi.FromMask(name, mask))
	}
	path := filepath.Join(t.TempDir(), "rois.zip")
	require.NoError(t, persistence.Save(rois, path))
	return path
}

func writeLegacy(t *testing.T) string {
	t.Helper()
	state, err := slicer.NewSliceState(3, 1, 0)
	require.NoError(t, err)
	records := []persistence.LegacyRecord{
		{Name: "liver", State: state, Poly: []raster.Point{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 2}, {Row: 2, Col: 0}}},
		{Name: "cyst", State: state, Poly: []raster.Point{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 1, Col: 0}}},
	}
	path := filepath.Join(t.TempDir(), "legacy.zip")
	require.NoError(t, persistence.SaveLegacy(records, path))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "arrview", cmd.Use)

	for _, name := range []string{"info", "migrate", "config"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "info", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInfoText(t *testing.T) {
	path := writeV1(t, ndarray.Shape{2, 3}, "liver", "spleen")

	out, _, err := execute(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "version:     1")
	assert.Contains(t, out, "A collection of ROIs")
	assert.Contains(t, out, "rois:        2")
	assert.Contains(t, out, "liver")
	assert.Contains(t, out, "2 voxels")
}

func TestInfoJSON(t *testing.T) {
	path := writeV1(t, ndarray.Shape{2, 3}, "liver", "spleen")

	out, _, err := execute(t, "--format", "json", "info", path)
	require.NoError(t, err)

	var result InfoResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Version)
	assert.NotNil(t, result.CreationTime)
	require.Len(t, result.ROIs, 2)
	assert.Equal(t, "spleen", result.ROIs[1].Name)
	require.NotNil(t, result.ROIs[1].Voxels)
	assert.Equal(t, 2, *result.ROIs[1].Voxels)
	assert.Nil(t, result.ROIs[1].Vertices)
}

func TestInfoLegacy(t *testing.T) {
	out, _, err := execute(t, "info", writeLegacy(t))
	require.NoError(t, err)
	assert.Contains(t, out, "version:     0")
	assert.Contains(t, out, "4 vertices")
}

func TestInfoErrors(t *testing.T) {
	_, _, err := execute(t, "info", filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	garbage := filepath.Join(t.TempDir(), "garbage.zip")
	require.NoError(t, os.WriteFile(garbage, []byte("nope"), 0644))
	_, _, err = execute(t, "info", garbage)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestMigrateLegacy(t *testing.T) {
	output := filepath.Join(t.TempDir(), "migrated.zip")

	out, stderr, err := execute(t, "-v", "--format", "json", "migrate", writeLegacy(t), output, "--shape", "3,3,3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "loaded rois")

	var result MigrateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []int{3, 3, 3}, result.Shape)
	require.Len(t, result.ROIs, 2)
	// equal slice states sort by name
	assert.Equal(t, "cyst", result.ROIs[0].Name)
	assert.Equal(t, "#ff0000", result.ROIs[0].Color)
	assert.Equal(t, 1, result.ROIs[0].Voxels)
	assert.Equal(t, "liver", result.ROIs[1].Name)
	assert.Equal(t, 4, result.ROIs[1].Voxels)

	rois, err := persistence.Load(output, nil)
	require.NoError(t, err)
	require.Len(t, rois, 2)
	assert.Equal(t, "cyst", rois[0].Name)
	assert.Equal(t, 4, rois[1].Mask().Count())
}

func TestMigrateText(t *testing.T) {
	output := filepath.Join(t.TempDir(), "migrated.zip")
	out, _, err := execute(t, "migrate", writeLegacy(t), output, "--shape", "3,3,3")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated 2 ROI(s)")
}

func TestMigrateErrors(t *testing.T) {
	output := filepath.Join(t.TempDir(), "migrated.zip")

	_, _, err := execute(t, "migrate", writeLegacy(t), output, "--shape", "3,x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "migrate", writeLegacy(t), output, "--shape", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// version 1 masks keep their shape
	_, _, err = execute(t, "migrate", writeV1(t, ndarray.Shape{2, 2}, "a"), output, "--shape", "3,3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err), "no output should be written on error")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrview.yaml")

	out, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hueStart")

	_, _, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigDrivesCodec(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "arrview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("persistence:\n  description: study 7\n  compressionLevel: 4\n"), 0644))
	output := filepath.Join(t.TempDir(), "migrated.zip")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "migrate", writeLegacy(t), output, "--shape", "3,3,3"})
	require.NoError(t, cmd.Execute())

	info, err := persistence.ReadInfo(output)
	require.NoError(t, err)
	assert.Equal(t, "study 7", info.Description)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colors:\n  saturation: 3\n"), 0644))
	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", bad, "info", output})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
	assert.ErrorIs(t, WrapExitError(ExitFailure, "x", assert.AnError), assert.AnError)
}
