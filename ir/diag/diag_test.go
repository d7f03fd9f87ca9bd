package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvariantError(t *testing.T) {
	err := Invariantf("cfg-closed", "entry has %d predecessors", 2)
	assert.Contains(t, err.Error(), "cfg-closed")
	assert.Contains(t, err.Error(), "2 predecessors")

	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "cfg-closed", inv.Invariant)
}

func TestTranslationErrorWrapping(t *testing.T) {
	cause := errors.New("unknown operation")
	err := Translation("main", cause)
	assert.Contains(t, err.Error(), "main")
	assert.ErrorIs(t, err, cause)
}

func TestConfigError(t *testing.T) {
	err := Config("unroll_factor", fmt.Errorf("must not be negative"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "unroll_factor", cfgErr.Field)
}

func TestWarnings(t *testing.T) {
	var w Warnings
	assert.True(t, w.Empty())

	w.Add("steensgaard", "%s analysed conservatively", "phi")
	require.False(t, w.Empty())
	items := w.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "steensgaard: phi analysed conservatively", items[0].String())

	items[0].Source = "mutated"
	assert.Equal(t, "steensgaard", w.Items()[0].Source, "Items returns a copy")
}
