package irrecoverable

import (
	"context"
	"runtime"
)

// Signaler sends irrecoverable errors out to whoever supervises the component.
type Signaler struct {
	errors chan<- error
}

func NewSignaler(errors chan<- error) *Signaler {
	return &Signaler{errors}
}

// Throw is a narrow drop-in replacement for panic, log.Fatal, log.Panic, etc
// anywhere there's something connected to the error channel.
// It hands err to the supervisor and terminates the calling goroutine.
func (e *Signaler) Throw(err error) {
	e.errors <- err
	runtime.Goexit()
}

// SignalerContext is a context.Context that can also throw irrecoverable errors.
// Components processing work take it instead of a plain context.Context.
type SignalerContext interface {
	context.Context
	Throw(err error) // delegates to the signaler
	sealed()         // private, to constrain builder to using WithSignaler
}

// private, to force context derivation / WithSignaler
type signalerCtxt struct {
	context.Context
	signaler *Signaler
}

func (sc signalerCtxt) sealed() {}

func (sc signalerCtxt) Throw(err error) {
	sc.signaler.Throw(err)
}

// WithSignaler is the only way of getting a SignalerContext outside of tests.
func WithSignaler(ctx context.Context, sig *Signaler) SignalerContext {
	return signalerCtxt{ctx, sig}
}
