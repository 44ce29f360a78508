package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRun(t *testing.T) {
	dir := testEnv(t)
	writeSite(t, dir)
	var out bytes.Buffer
	ui.Out = &out
	ui.ErrOut = &bytes.Buffer{}
	checkMin = 0

	require.NoError(t, checkRun(context.Background()))
	assert.Contains(t, out.String(), "documentation unavailable")
}

func TestCheckRun_BelowMin(t *testing.T) {
	dir := testEnv(t)
	writeSite(t, dir)
	ui.Out = &bytes.Buffer{}
	ui.ErrOut = &bytes.Buffer{}
	checkMin = 90
	defer func() { checkMin = 0 }()

	err := checkRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 entries")
}
