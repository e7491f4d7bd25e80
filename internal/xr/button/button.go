// Package button is the session entry control: it probes the runtime once,
// settles into a state and from then on toggles sessions on click.
//
// Runtime answers come back through an async.Queue, so the button only
// changes state while the frame loop drains it.
package button

import (
	"fmt"
	"net/url"

	"github.com/xrplace/sandbox/internal/core/async"
	"github.com/xrplace/sandbox/internal/xr"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// State of the button after the capability probe.
type State int

const (
	StateProbing State = iota
	StateReady
	StateUnsupported
	StateNotAllowed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnsupported:
		return "unsupported"
	case StateNotAllowed:
		return "not-allowed"
	}
	return "probing"
}

// Options mirror the callbacks a page wires to the button.
type Options struct {
	Init     xr.SessionInit
	Language string

	OnReady          func()
	OnSessionStarted func()
	OnSessionEnded   func()
	OnRequestFailed  func(error)
	OnUnsupported    func()
	OnNotAllowed     func(error)
}

// Button is an AR entry button bound to a runtime.
type Button struct {
	rt      xr.Runtime
	q       *async.Queue
	opts    Options
	log     *zap.Logger
	printer *message.Printer

	state      State
	label      string
	inside     bool
	requesting bool
	Visible    bool
}

// Convert returns a button in StateProbing and starts the capability probe
// for the configured session mode. The button settles when the probe answer
// is drained from q. A probe error is logged and leaves the button in
// StateNotAllowed.
func Convert(rt xr.Runtime, q *async.Queue, opts Options, log *zap.Logger) *Button {
	if opts.Init.Mode == "" {
		opts.Init.Mode = xr.ModeImmersiveAR
	}
	b := &Button{
		rt:      rt,
		q:       q,
		opts:    opts,
		log:     log,
		printer: Printer(opts.Language),
		Visible: true,
	}
	rt.IsSessionSupported(opts.Init.Mode, async.Deliver(q, b.settle))
	return b
}

func (b *Button) settle(supported bool, err error) {
	switch {
	case err != nil:
		b.state = StateNotAllowed
		b.label = b.printer.Sprintf(keyNotAllowed)
		b.log.Warn("exception when probing xr session support", zap.String("mode", b.opts.Init.Mode), zap.Error(err))
		if b.opts.OnNotAllowed != nil {
			b.opts.OnNotAllowed(err)
		}
	case !supported:
		b.state = StateUnsupported
		b.label = b.printer.Sprintf(keyNotSupported)
		if b.opts.OnUnsupported != nil {
			b.opts.OnUnsupported()
		}
	default:
		b.state = StateReady
		b.label = b.printer.Sprintf(keyEnter)
		if b.opts.OnReady != nil {
			b.opts.OnReady()
		}
	}
}

func (b *Button) State() State  { return b.state }
func (b *Button) Label() string { return b.label }

// Requesting reports whether a session request is in flight.
func (b *Button) Requesting() bool { return b.requesting }

// Click starts a session when none is active and ends the current one
// otherwise. Clicking a button that is not ready, or while a request is in
// flight, does nothing. A failed request is logged and handed to
// OnRequestFailed; the returned error only comes from ending a session.
func (b *Button) Click() error {
	if b.state != StateReady || b.requesting {
		return nil
	}
	if !b.inside {
		b.requesting = true
		b.rt.RequestSession(b.opts.Init, async.Deliver(b.q, b.started))
		return nil
	}
	if err := b.rt.EndSession(); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	b.ended()
	return nil
}

func (b *Button) started(_ struct{}, err error) {
	b.requesting = false
	if err != nil {
		err = fmt.Errorf("request %s session: %w", b.opts.Init.Mode, err)
		b.log.Warn("xr session request failed", zap.Error(err))
		if b.opts.OnRequestFailed != nil {
			b.opts.OnRequestFailed(err)
		}
		return
	}
	b.inside = true
	b.label = b.printer.Sprintf(keyExit)
	if b.opts.OnSessionStarted != nil {
		b.opts.OnSessionStarted()
	}
}

// Sync notices a session that ended without a click (the user left from
// the headset menu).
func (b *Button) Sync() {
	if b.inside && !b.rt.IsPresenting() {
		b.ended()
	}
}

func (b *Button) ended() {
	b.inside = false
	b.label = b.printer.Sprintf(keyEnter)
	if b.opts.OnSessionEnded != nil {
		b.opts.OnSessionEnded()
	}
}

const launchBase = "https://www.oculus.com/open_url/?url="

// LaunchURL is the fallback link that opens page on a headset browser.
func LaunchURL(page string) string {
	return launchBase + url.QueryEscape(page)
}
