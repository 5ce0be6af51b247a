package abis

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectors(t *testing.T) {
	assert.Equal(t, "0xac9650d8", hexutil.Encode(Relayer.Methods["multicall"].ID))
	assert.Equal(t, "0xf84d066e", hexutil.Encode(Vault.Methods["queryBatchSwap"].ID))
	assert.Equal(t,
		common.HexToHash("0x83a48fbcfc991335314e74d0496aab6a1987e992ddc85dddbcc4d6dd6ef2e9fc"),
		WeightedPoolFactory.Events["PoolCreated"].ID,
	)
}

func TestMethodsPresent(t *testing.T) {
	for _, m := range []string{"getWrappedTokenRate", "getPoolId", "getMainToken", "getWrappedToken"} {
		_, ok := LinearPool.Methods[m]
		assert.True(t, ok, m)
	}
	for _, m := range []string{"multicall", "batchSwap", "unwrapAaveStaticToken"} {
		_, ok := Relayer.Methods[m]
		assert.True(t, ok, m)
	}
	_, ok := StaticAToken.Methods["rate"]
	assert.True(t, ok)
}

func TestInt256ArrayRoundTrip(t *testing.T) {
	in := []*big.Int{big.NewInt(-5), big.NewInt(0), big.NewInt(42)}
	packed, err := Int256Array.Pack(in)
	require.NoError(t, err)

	out, err := Int256Array.Unpack(packed)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0].([]*big.Int))
}
