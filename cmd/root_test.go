package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/greenspace-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"extract", "render", "run", "serve", "regions", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "greenspace", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExtractCommand_Flags(t *testing.T) {
	flag := extractCmd.Flags().Lookup("region")
	require.NotNil(t, flag, "extract command should have --region flag")

	refresh := extractCmd.Flags().Lookup("refresh")
	require.NotNil(t, refresh, "extract command should have --refresh flag")
	assert.Equal(t, "false", refresh.DefValue)
}

func TestRenderCommand_Flags(t *testing.T) {
	flag := renderCmd.Flags().Lookup("region")
	require.NotNil(t, flag, "render command should have --region flag")
}

func TestRunCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"region", "refresh"} {
		flag := runCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "run should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRegionsCommand_HasInit(t *testing.T) {
	cmds := regionsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}
	assert.True(t, names["init"], "regions should have subcommand init")

	output := regionsInitCmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "config.yaml", output.DefValue)
}

func TestStatusCommand_Flags(t *testing.T) {
	flag := statusCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "status command should have --limit flag")
	assert.Equal(t, "10", flag.DefValue)
}

func TestSelectRegions(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{Regions: []config.RegionConfig{
		{Name: "Staffordshire", PBFFile: "staffs.osm.pbf"},
		{Name: "West Midlands", PBFFile: "wm.osm.pbf"},
	}}

	all, err := selectRegions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := selectRegions("staffordshire")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Staffordshire", one[0].Name)

	_, err = selectRegions("Cornwall")
	assert.Error(t, err)
}

func TestToRegion(t *testing.T) {
	rc := config.RegionConfig{
		PBFFile:      "staffs.osm.pbf",
		Name:         "Staffordshire",
		Population:   1177578,
		TotalAreaKm2: 2714,
	}
	r := toRegion(rc)
	assert.Equal(t, "staffs.osm.pbf", r.SourceFile)
	assert.Equal(t, "Staffordshire", r.Name)
	assert.Equal(t, int64(1177578), r.Population)
	assert.InDelta(t, 2714, r.TotalAreaKm2, 0.001)
}
