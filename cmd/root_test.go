package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "score", "import", "presets", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "livability-map", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"weights", "preset", "property", "top", "out", "xlsx"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score should have --%s flag", name)
	}
}

func TestImportCommand_HasShapefile(t *testing.T) {
	var found bool
	for _, c := range importCmd.Commands() {
		if c.Name() == "shapefile" {
			found = true
		}
	}
	assert.True(t, found)

	for _, name := range []string{"join", "out", "charset", "fields", "simplify"} {
		assert.NotNil(t, importShapefileCmd.Flags().Lookup(name), "import shapefile should have --%s flag", name)
	}
}

func TestPresetsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range presetsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "save", "delete", "import"} {
		assert.True(t, names[name], "presets should have subcommand %q", name)
	}
}
