package signin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"identity-service/internal/auth"
	"identity-service/internal/auth/provider"
	"identity-service/internal/logger"
)

var ErrInProgress = errors.New("sign-in already in progress")

type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

// Flow performs the actual sign-in against one provider.
type Flow func(ctx context.Context) (*auth.Identity, error)

// Result is the outcome of one Run.
type Result struct {
	State State
	Value *auth.Identity
	Err   error
}

// Initiator drives one sign-in trigger through
// idle -> pending -> success|failed. A finished initiator returns to pending
// only when Run is called again.
type Initiator struct {
	provider provider.Descriptor
	mode     Mode
	flow     Flow

	mu    sync.Mutex
	state State
	err   error
}

func New(p provider.Descriptor, mode Mode, flow Flow) *Initiator {
	return &Initiator{provider: p, mode: mode, flow: flow}
}

// Run executes the flow. A call made while another Run is pending returns
// ErrInProgress without invoking the flow.
func (in *Initiator) Run(ctx context.Context) Result {
	in.mu.Lock()
	if in.state == StatePending {
		in.mu.Unlock()
		return Result{State: StatePending, Err: ErrInProgress}
	}
	in.state = StatePending
	in.err = nil
	in.mu.Unlock()

	identity, err := in.call(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()

	if err != nil {
		in.state = StateFailed
		in.err = classify(err)
		logger.Warn("sign-in failed", map[string]any{
			"provider": in.provider.ID,
			"error":    err.Error(),
		})
		return Result{State: StateFailed, Err: in.err}
	}

	in.state = StateSuccess
	return Result{State: StateSuccess, Value: identity}
}

// call runs the flow and turns a panic into an error.
func (in *Initiator) call(ctx context.Context) (identity *auth.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sign-in flow panicked: %v", r)
		}
	}()

	identity, err = in.flow(ctx)
	if err == nil && identity == nil {
		err = errors.New("sign-in flow returned no identity")
	}
	return identity, err
}

// classify keeps known sign-in errors and folds everything else into
// auth.ErrProviderSignInFailed.
func classify(err error) error {
	if auth.Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %v", auth.ErrProviderSignInFailed, err)
}

func (in *Initiator) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Disabled reports whether the trigger should refuse input.
func (in *Initiator) Disabled() bool {
	return in.State() == StatePending
}

// Label is the trigger text for the current state.
func (in *Initiator) Label() string {
	if !in.Disabled() {
		return in.provider.Name
	}
	if in.mode == ModeSignup {
		return "Signing up..."
	}
	return "Signing in..."
}

// Message is the caller-facing error text after a failed run.
func (in *Initiator) Message() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state != StateFailed {
		return ""
	}
	return auth.PublicMessage(in.err)
}
