package app

import (
	"context"
	"errors"
	"io"
	"strings"

	"concierge/internal/metrics"
)

// DoneMarker is the raw payload of the terminal fragment.
const DoneMarker = "[DONE]"

var ErrRelayAborted = errors.New("relay aborted")

// Fragment is one incremental piece of a completion. Raw is the upstream
// payload forwarded to the caller verbatim; Text is what the answer accumulates.
type Fragment struct {
	Text     string
	Raw      []byte
	Terminal bool
}

// FragmentSource yields fragments until it returns io.EOF on clean completion.
type FragmentSource interface {
	Recv() (Fragment, error)
	Close() error
}

// FinalizeFunc persists the full answer text once upstream completes.
type FinalizeFunc func(ctx context.Context, answer string) error

type RelayState int

const (
	RelayStreaming RelayState = iota
	RelayFinalizing
	RelayDone
	RelayFailed
	RelayAborted
)

func (s RelayState) String() string {
	switch s {
	case RelayStreaming:
		return "streaming"
	case RelayFinalizing:
		return "finalizing"
	case RelayDone:
		return "done"
	case RelayFailed:
		return "failed"
	case RelayAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type RelayOptions struct {
	// FinalizeOnDisconnect makes Abort drain upstream and persist instead of
	// dropping the partial answer.
	FinalizeOnDisconnect bool
	Metrics              *metrics.Metrics
}

// Relay forwards upstream fragments in order while accumulating their text,
// then finalizes exactly once when upstream signals completion. A Relay is
// owned by a single request and is not safe for concurrent use.
type Relay struct {
	src      FragmentSource
	finalize FinalizeFunc
	opts     RelayOptions

	state  RelayState
	answer strings.Builder
	err    error
}

func NewRelay(src FragmentSource, finalize FinalizeFunc, opts RelayOptions) *Relay {
	return &Relay{src: src, finalize: finalize, opts: opts, state: RelayStreaming}
}

func (r *Relay) State() RelayState { return r.state }

// Err is the failure that moved the relay to Failed, if any.
func (r *Relay) Err() error { return r.err }

// Next returns the next fragment. After upstream completes it runs the
// finalizer and, on success, returns a terminal fragment carrying DoneMarker;
// every later call returns io.EOF. Upstream and finalizer failures are
// returned as ApplicationErrors and the partial answer is discarded.
func (r *Relay) Next(ctx context.Context) (Fragment, error) {
	switch r.state {
	case RelayDone:
		return Fragment{}, io.EOF
	case RelayFailed:
		return Fragment{}, r.err
	case RelayAborted:
		return Fragment{}, ErrRelayAborted
	}

	frag, err := r.src.Recv()
	if errors.Is(err, io.EOF) {
		return r.complete(ctx)
	}
	if err != nil {
		return Fragment{}, r.fail(NewApplicationError("Failed to read completion stream", err))
	}
	r.answer.WriteString(frag.Text)
	r.opts.Metrics.FragmentRelayed()
	return frag, nil
}

// Abort handles a caller that went away mid-stream. By default upstream is
// closed and nothing is persisted. With FinalizeOnDisconnect the remaining
// fragments are drained and the full answer is finalized.
func (r *Relay) Abort(ctx context.Context) error {
	if r.state != RelayStreaming {
		return nil
	}
	if !r.opts.FinalizeOnDisconnect {
		r.state = RelayAborted
		r.answer.Reset()
		r.opts.Metrics.RelayFinished(r.state.String())
		return r.src.Close()
	}
	for {
		frag, err := r.src.Recv()
		if errors.Is(err, io.EOF) {
			_, err = r.complete(ctx)
			return err
		}
		if err != nil {
			return r.fail(NewApplicationError("Failed to read completion stream", err))
		}
		r.answer.WriteString(frag.Text)
	}
}

func (r *Relay) complete(ctx context.Context) (Fragment, error) {
	r.state = RelayFinalizing
	_ = r.src.Close()
	if r.finalize != nil {
		if err := r.finalize(ctx, r.answer.String()); err != nil {
			var appErr *ApplicationError
			if !errors.As(err, &appErr) {
				err = NewApplicationError("Failed to finalize answer", err)
			}
			r.state = RelayFailed
			r.err = err
			r.opts.Metrics.RelayFinished(r.state.String())
			return Fragment{}, err
		}
	}
	r.state = RelayDone
	r.opts.Metrics.RelayFinished(r.state.String())
	return Fragment{Raw: []byte(DoneMarker), Terminal: true}, nil
}

func (r *Relay) fail(err error) error {
	r.state = RelayFailed
	r.err = err
	r.answer.Reset()
	_ = r.src.Close()
	r.opts.Metrics.RelayFinished(r.state.String())
	return err
}
