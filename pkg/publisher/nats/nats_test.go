package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujine/balancer-sdk/pkg/publisher"
)

func TestSubjectFor(t *testing.T) {
	cases := []struct {
		evt  publisher.Event
		want string
	}{
		{publisher.Event{Kind: publisher.KindRelayer, Network: "mainnet", Function: "multicall"}, "balancer.relayer.mainnet.multicall"},
		{publisher.Event{Kind: publisher.KindPool, Network: "kovan", Function: "create"}, "balancer.pool.kovan.create"},
		{publisher.Event{Kind: publisher.KindRate, Network: "mainnet"}, "balancer.rate.mainnet"},
		{publisher.Event{Kind: publisher.KindRate, Network: "chain.5"}, "balancer.rate.chain_5"},
	}
	for _, tc := range cases {
		got, err := SubjectFor(&tc.evt)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := SubjectFor(&publisher.Event{Network: "mainnet"})
	assert.Error(t, err)
	_, err = SubjectFor(nil)
	assert.ErrorIs(t, err, publisher.ErrNilEvent)
}
