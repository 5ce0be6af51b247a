package publisher

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEventBuilder(t *testing.T) {
	relayer := common.HexToAddress("0xAc9f49eF3ab0BbC929f7b1bb0A17E1Fca5786251")
	evt, err := NewEventBuilder(KindRelayer, "mainnet").
		WithFunction("multicall").
		WithTimestamp(42).
		WithAddress("relayer", relayer).
		WithBigs("amountsOut", []*big.Int{big.NewInt(1), nil}).
		WithBig("slippage", big.NewInt(5)).
		WithValue("meta", map[string]interface{}{"calls": 2}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "multicall", evt.Function)
	assert.Equal(t, int64(42), evt.TsNs)

	m := evt.Proto().AsMap()
	assert.Equal(t, "relayer", m["kind"])
	assert.Equal(t, "mainnet", m["network"])
	assert.Equal(t, float64(42), m["tsNs"])

	payload := m["payload"].(map[string]interface{})
	assert.Equal(t, relayer.Hex(), payload["relayer"])
	assert.Equal(t, []interface{}{"1", nil}, payload["amountsOut"])
	assert.Equal(t, "5", payload["slippage"])
	assert.Equal(t, map[string]interface{}{"calls": float64(2)}, payload["meta"])

	raw, err := proto.Marshal(evt.Proto())
	require.NoError(t, err)
	var back structpb.Struct
	require.NoError(t, proto.Unmarshal(raw, &back))
	assert.Equal(t, "multicall", back.Fields["function"].GetStringValue())
}

func TestEventBuilderBadValue(t *testing.T) {
	_, err := NewEventBuilder(KindRate, "mainnet").
		WithValue("ch", make(chan int)).
		Build()
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var s Sink = Noop{}
	assert.NoError(t, s.Publish(&Event{Kind: KindPool}))
	assert.ErrorIs(t, s.Publish(nil), ErrNilEvent)
	assert.NoError(t, s.PublishAt(&Event{}, "x"))
	s.Close()

	evt := &Event{}
	Stamp(evt)
	assert.NotZero(t, evt.TsNs)
}
