package publisher

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventBuilder helps construct an Event with a builder pattern.
// Field errors are kept and reported by Build.
type EventBuilder struct {
	evt    *Event
	fields map[string]*structpb.Value
	err    error
}

// NewEventBuilder creates a builder for kind on network.
func NewEventBuilder(kind, network string) *EventBuilder {
	return &EventBuilder{
		evt: &Event{
			Kind:    kind,
			Network: network,
			TsNs:    time.Now().UnixNano(),
		},
		fields: map[string]*structpb.Value{},
	}
}

// WithFunction sets the contract function the event is about.
func (b *EventBuilder) WithFunction(fn string) *EventBuilder {
	b.evt.Function = fn
	return b
}

// WithTimestamp overrides the event timestamp (ns).
func (b *EventBuilder) WithTimestamp(ns int64) *EventBuilder {
	b.evt.TsNs = ns
	return b
}

func (b *EventBuilder) WithString(key, v string) *EventBuilder {
	b.fields[key] = structpb.NewStringValue(v)
	return b
}

func (b *EventBuilder) WithAddress(key string, a common.Address) *EventBuilder {
	return b.WithString(key, a.Hex())
}

func (b *EventBuilder) WithAddresses(key string, as []common.Address) *EventBuilder {
	vals := make([]*structpb.Value, len(as))
	for i, a := range as {
		vals[i] = structpb.NewStringValue(a.Hex())
	}
	b.fields[key] = structpb.NewListValue(&structpb.ListValue{Values: vals})
	return b
}

// WithBig stores n as a decimal string; numbers in a Struct are float64.
func (b *EventBuilder) WithBig(key string, n *big.Int) *EventBuilder {
	if n == nil {
		b.fields[key] = structpb.NewNullValue()
		return b
	}
	return b.WithString(key, n.String())
}

func (b *EventBuilder) WithBigs(key string, ns []*big.Int) *EventBuilder {
	vals := make([]*structpb.Value, len(ns))
	for i, n := range ns {
		if n == nil {
			vals[i] = structpb.NewNullValue()
			continue
		}
		vals[i] = structpb.NewStringValue(n.String())
	}
	b.fields[key] = structpb.NewListValue(&structpb.ListValue{Values: vals})
	return b
}

// WithValue stores any JSON-marshalable value under key, in its JSON shape.
func (b *EventBuilder) WithValue(key string, v interface{}) *EventBuilder {
	raw, err := json.Marshal(v)
	if err != nil {
		b.setErr(fmt.Errorf("field %s: %w", key, err))
		return b
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		b.setErr(fmt.Errorf("field %s: %w", key, err))
		return b
	}
	val, err := structpb.NewValue(generic)
	if err != nil {
		b.setErr(fmt.Errorf("field %s: %w", key, err))
		return b
	}
	b.fields[key] = val
	return b
}

func (b *EventBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build finalizes the event.
func (b *EventBuilder) Build() (*Event, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.evt.Payload = &structpb.Struct{Fields: b.fields}
	return b.evt, nil
}
