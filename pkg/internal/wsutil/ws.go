package wsutil

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Options configures Dialer and Retry.
type Options struct {
	Headers          http.Header
	ReadLimit        int64
	HandshakeTimeout time.Duration
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	MaxAttempts      int
}

// withDefaults fills unset fields.
func (opt *Options) withDefaults() Options {
	o := Options{
		ReadLimit:        1 << 20,
		HandshakeTimeout: 10 * time.Second,
		InitialBackoff:   200 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		MaxAttempts:      5,
	}
	if opt != nil {
		if opt.ReadLimit > 0 {
			o.ReadLimit = opt.ReadLimit
		}
		if opt.HandshakeTimeout > 0 {
			o.HandshakeTimeout = opt.HandshakeTimeout
		}
		if opt.InitialBackoff > 0 {
			o.InitialBackoff = opt.InitialBackoff
		}
		if opt.MaxBackoff > 0 {
			o.MaxBackoff = opt.MaxBackoff
		}
		if opt.MaxAttempts > 0 {
			o.MaxAttempts = opt.MaxAttempts
		}
		o.Headers = opt.Headers
	}
	return o
}

// Resolved returns opt with defaults applied.
func Resolved(opt *Options) Options { return opt.withDefaults() }

// Dialer returns the websocket dialer used for JSON-RPC over WS.
func Dialer(opt *Options) websocket.Dialer {
	o := opt.withDefaults()
	return websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  o.HandshakeTimeout,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		EnableCompression: true,
	}
}

// Retry calls dial until it succeeds, ctx is canceled or MaxAttempts is
// reached, doubling the wait between attempts up to MaxBackoff.
func Retry[T any](ctx context.Context, opt *Options, log logrus.FieldLogger, dial func(context.Context) (T, error)) (T, error) {
	o := opt.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}

	var zero T
	backoff := o.InitialBackoff
	var err error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		var v T
		v, err = dial(ctx)
		if err == nil {
			return v, nil
		}
		log.WithError(err).WithField("attempt", attempt).Warn("dial failed")
		if attempt == o.MaxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if backoff < o.MaxBackoff {
			backoff *= 2
			if backoff > o.MaxBackoff {
				backoff = o.MaxBackoff
			}
		}
	}
	return zero, err
}
