package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujine/balancer-sdk/pkg/config"
)

func TestForkSource(t *testing.T) {
	t.Setenv("FORK_AUTO_START", "1")
	t.Setenv("FORK_SOURCE_RPC", "")

	_, err := forkSource(&config.Config{})
	assert.ErrorContains(t, err, "fork source")

	src, err := forkSource(&config.Config{RPCURL: "http://node:8545"})
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", src)

	// an explicit source or an external fork needs no endpoint
	t.Setenv("FORK_SOURCE_RPC", "http://archive:8545")
	_, err = forkSource(&config.Config{})
	assert.NoError(t, err)

	t.Setenv("FORK_AUTO_START", "")
	t.Setenv("FORK_SOURCE_RPC", "")
	_, err = forkSource(&config.Config{})
	assert.NoError(t, err)
}
