// Package nats publishes SDK events to NATS.
//   - Subject is built from the event kind, network and function:
//     balancer.<kind>.<network>[.<function>]
//
// Example:
//
//	balancer.relayer.mainnet.multicall
//	balancer.pool.kovan.create
//	balancer.rate.mainnet
package nats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"

	"github.com/sujine/balancer-sdk/pkg/publisher"
)

const subjectRoot = "balancer"

type Options struct {
	// FlushEvery enables FlushTimeout after every publish.
	FlushEvery   bool
	FlushTimeout time.Duration
}

type Publisher struct {
	nc         *nats.Conn
	flushEvery bool
	flushTO    time.Duration
	log        logrus.FieldLogger
}

// New creates a NATS publisher with reconnect defaults.
func New(url string, opt Options, log logrus.FieldLogger) (*Publisher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "nats")
	nc, err := nats.Connect(
		url,
		nats.Name("balancer-sdk-publisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(100*time.Millisecond),
		nats.PingInterval(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("disconnected")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	flushTO := opt.FlushTimeout
	if flushTO <= 0 {
		flushTO = 50 * time.Millisecond
	}
	return &Publisher{
		nc:         nc,
		flushEvery: opt.FlushEvery,
		flushTO:    flushTO,
		log:        log,
	}, nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// Publish marshals evt and publishes it to the subject derived from it.
func (p *Publisher) Publish(evt *publisher.Event) error {
	if evt == nil {
		return publisher.ErrNilEvent
	}
	subject, err := SubjectFor(evt)
	if err != nil {
		return err
	}
	return p.PublishAt(evt, subject)
}

// PublishAt marshals evt and publishes to an explicit subject.
func (p *Publisher) PublishAt(evt *publisher.Event, subject string) error {
	if evt == nil {
		return publisher.ErrNilEvent
	}
	publisher.Stamp(evt)
	b, err := proto.Marshal(evt.Proto())
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    b,
		Header:  nats.Header{},
	}
	// local enqueue timestamp for downstream latency
	msg.Header.Set("bal-pub-ns", strconv.FormatInt(time.Now().UnixNano(), 10))

	if err := p.nc.PublishMsg(msg); err != nil {
		return err
	}
	if p.flushEvery {
		_ = p.nc.FlushTimeout(p.flushTO)
	}
	p.log.WithField("subject", subject).Debug("published")
	return nil
}

// SubjectFor builds balancer.<kind>.<network>[.<function>].
func SubjectFor(evt *publisher.Event) (string, error) {
	if evt == nil {
		return "", publisher.ErrNilEvent
	}
	kind := token(evt.Kind)
	network := token(evt.Network)
	if kind == "" || network == "" {
		return "", errors.New("missing kind/network")
	}
	parts := []string{subjectRoot, kind, network}
	if fn := token(evt.Function); fn != "" {
		parts = append(parts, fn)
	}
	return strings.Join(parts, "."), nil
}

// token makes s safe as a single subject token.
func token(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}

var _ publisher.Sink = (*Publisher)(nil)
