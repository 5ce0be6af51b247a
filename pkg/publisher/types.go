package publisher

import (
	"errors"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Event kinds. They form the second token of the subject.
const (
	KindRelayer    = "relayer"
	KindPool       = "pool"
	KindRate       = "rate"
	KindSimulation = "simulation"
)

const SchemaVersion = 1

var ErrNilEvent = errors.New("nil event")

// Event is an SDK outcome (a built relayer call, a pool creation, a rate
// read) published for downstream consumers.
type Event struct {
	Kind     string
	Network  string
	Function string
	TsNs     int64
	Payload  *structpb.Struct
}

// Proto is the wire form of e.
func (e *Event) Proto() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"kind":          structpb.NewStringValue(e.Kind),
		"network":       structpb.NewStringValue(e.Network),
		"tsNs":          structpb.NewNumberValue(float64(e.TsNs)),
		"schemaVersion": structpb.NewNumberValue(SchemaVersion),
	}
	if e.Function != "" {
		fields["function"] = structpb.NewStringValue(e.Function)
	}
	if e.Payload != nil {
		fields["payload"] = structpb.NewStructValue(e.Payload)
	}
	return &structpb.Struct{Fields: fields}
}

func (e *Event) stamp() {
	if e.TsNs == 0 {
		e.TsNs = time.Now().UnixNano()
	}
}

// Sink abstracts the transport. nats.Publisher and Noop implement it.
type Sink interface {
	Publish(evt *Event) error
	PublishAt(evt *Event, subject string) error
	Close()
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(evt *Event) error {
	if evt == nil {
		return ErrNilEvent
	}
	return nil
}

func (Noop) PublishAt(evt *Event, _ string) error { return Noop{}.Publish(evt) }

func (Noop) Close() {}

// Stamp sets the timestamp of evt if unset.
func Stamp(evt *Event) { evt.stamp() }
