package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Interactive callers get schema validation unless they opt out.
func TestDispatchValidatesByDefault(t *testing.T) {
	opts := cliOptions{}
	cmd := newDispatchCmd(&opts)

	flag := cmd.Flags().Lookup("validate")
	require.NotNil(t, flag)
	require.Equal(t, "true", flag.DefValue)

	require.NoError(t, cmd.Flags().Set("validate", "false"))
	value, err := cmd.Flags().GetBool("validate")
	require.NoError(t, err)
	require.False(t, value)
}
