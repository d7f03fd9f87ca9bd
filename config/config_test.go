package config

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/jlm-go/rvsdgc/ir/diag"
)

func TestNewWithOptions(t *testing.T) {
	c, err := New(
		WithUnrollFactor(4),
		WithPasses("inv", "url", "red"),
		WithLoadReductions(true),
	)
	require.NoError(t, err)

	assert.Equal(t, 4, c.UnrollFactor)
	assert.Equal(t, []string{"inv", "url", "red"}, c.Passes)
	assert.True(t, c.EnableLoadMux)
	assert.True(t, c.EnableLoadAlloca)
	assert.True(t, c.EnableMultipleOrigin)
	assert.True(t, c.EnableLoadStoreState)
	assert.True(t, c.EnableLoadStoreAlloca)
}

func TestValidateRejectsUnknownPass(t *testing.T) {
	_, err := New(WithPasses("cne", "gvn"))
	require.Error(t, err)
	var cfgErr *diag.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "passes", cfgErr.Field)
}

func TestValidateRejectsNegativeUnrollFactor(t *testing.T) {
	_, err := New(WithUnrollFactor(-1))
	require.Error(t, err)
	var cfgErr *diag.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "unroll_factor", cfgErr.Field)
}

func TestUnrollFactorBelowTwoIsAllowed(t *testing.T) {
	c, err := New(WithUnrollFactor(0))
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnrollFactor, "values below two merely disable unrolling")
}

func TestLoadFromYAML(t *testing.T) {
	document := `
enable_load_mux: true
enable_load_store_alloca: true
unroll_factor: 4
passes:
  - inv
  - url
  - red
  - dne
`
	fs := afs.New()
	ctx := context.Background()
	URL := "mem://localhost/config/opt.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(document)))

	c, err := Load(ctx, fs, URL)
	require.NoError(t, err)

	assert.True(t, c.EnableLoadMux)
	assert.False(t, c.EnableLoadAlloca)
	assert.True(t, c.EnableLoadStoreAlloca)
	assert.Equal(t, 4, c.UnrollFactor)
	assert.Equal(t, []string{"inv", "url", "red", "dne"}, c.Passes)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()
	URL := "mem://localhost/config/bad.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode,
		strings.NewReader("passes:\n  - licm\n")))

	_, err := Load(ctx, fs, URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "licm")
}

func TestLoadMissingFile(t *testing.T) {
	fs := afs.New()
	_, err := Load(context.Background(), fs, "mem://localhost/config/absent.yaml")
	assert.Error(t, err)
}

func TestPassNamesClosedSet(t *testing.T) {
	names := PassNames()
	assert.Len(t, names, 9)
	for _, name := range names {
		c, err := New(WithPasses(name))
		require.NoError(t, err)
		assert.Equal(t, []string{name}, c.Passes)
	}
}
