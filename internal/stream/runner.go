package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/hatch-dev/cli/internal/protocol"
	"github.com/hatch-dev/cli/internal/state"
)

// ErrDisconnected is surfaced when the stream ended before the turn was
// marked complete and the replay budget is exhausted. The partial result
// accumulated before disconnection is still returned alongside it.
var ErrDisconnected = errors.New("stream disconnected before completion and replay failed")

// OpenOptions configure how a turn stream is opened or reopened.
type OpenOptions struct {
	// Prompt is the user message starting the turn. Empty on replay: the
	// backend replays the persisted event log from the resume cursor instead
	// of generating anew.
	Prompt string

	// ResumeFromEventID is the cursor of the last observed event, set when
	// reopening after a disconnect.
	ResumeFromEventID string
}

// Opener opens the byte stream for a turn. Implemented by the HTTP transport
// and by fakes in tests.
type Opener interface {
	OpenTurnStream(ctx context.Context, conversationID string, opts OpenOptions) (io.ReadCloser, error)
}

// Dispatcher is the frame-batched action sink the runner feeds.
type Dispatcher interface {
	Enqueue(state.Action)
	Wait(ctx context.Context) error
}

// Runner drives one turn end to end: it opens the stream, decodes chunks,
// applies events through an Accumulator, batches the resulting actions, and
// coordinates a single replay attempt when the stream ends early.
type Runner struct {
	opener     Opener
	dispatcher Dispatcher
	onResolve  ResolveFunc

	// maxReplays bounds reopen attempts per turn. One by design: this is a
	// user-facing best-effort recovery, not an at-least-once guarantee.
	maxReplays  int
	readBufSize int
}

// NewRunner creates a runner with the default single-replay budget.
func NewRunner(opener Opener, dispatcher Dispatcher, onResolve ResolveFunc) *Runner {
	return &Runner{
		opener:      opener,
		dispatcher:  dispatcher,
		onResolve:   onResolve,
		maxReplays:  1,
		readBufSize: 4096,
	}
}

// Run executes one turn for a conversation and returns its final result.
// The state map reflects every event as it streams; Run's return value is the
// terminal accumulation used to persist the assistant message.
//
// Cancellation via ctx aborts the underlying read; already-applied state
// mutations are not rolled back, but the streaming flag is cleared.
func (r *Runner) Run(ctx context.Context, conversationID, prompt string) (Result, error) {
	r.dispatcher.Enqueue(state.StartStreaming{ConversationID: conversationID})

	result, finalID, err := r.runSegment(ctx, conversationID, OpenOptions{Prompt: prompt}, 0)

	r.dispatcher.Enqueue(state.StopStreaming{ConversationID: finalID})

	// Order the final result after every applied state update.
	waitCtx := ctx
	if waitCtx.Err() != nil {
		waitCtx = context.Background()
	}
	if werr := r.dispatcher.Wait(waitCtx); werr != nil && err == nil {
		err = werr
	}

	return result, err
}

// runSegment accumulates one stream segment and recurses into the replay
// continuation when the segment ends before completion.
func (r *Runner) runSegment(ctx context.Context, conversationID string, opts OpenOptions, attempt int) (Result, string, error) {
	body, err := r.opener.OpenTurnStream(ctx, conversationID, opts)
	if err != nil {
		if attempt > 0 {
			return Result{}, conversationID, fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
		return Result{}, conversationID, fmt.Errorf("open turn stream: %w", err)
	}
	defer body.Close()

	acc := NewAccumulator(conversationID, r.onResolve)
	var (
		rest     []byte
		sawEvent bool
		readErr  error
	)

	buf := make([]byte, r.readBufSize)
	for {
		if ctx.Err() != nil {
			readErr = ctx.Err()
			break
		}

		n, rerr := body.Read(buf)
		if n > 0 {
			var events []protocol.TaggedEvent
			events, rest = protocol.Feed(rest, buf[:n])
			for _, ev := range events {
				sawEvent = true
				for _, action := range acc.Apply(ev) {
					r.dispatcher.Enqueue(action)
				}
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				readErr = rerr
			}
			break
		}
		if acc.Completed() {
			break
		}
	}

	result := acc.Result()
	resolvedID := acc.ConversationID()

	switch {
	case errors.Is(readErr, context.Canceled), errors.Is(readErr, context.DeadlineExceeded):
		return result, resolvedID, readErr

	case acc.Completed():
		return result, resolvedID, nil

	case readErr != nil && !sawEvent && attempt == 0:
		// Failed before any event arrived: a plain transport error, not a
		// mid-turn disconnect worth replaying.
		return result, resolvedID, fmt.Errorf("turn stream failed: %w", readErr)

	case attempt >= r.maxReplays || acc.TurnID() == "":
		return result, resolvedID, ErrDisconnected
	}

	log.Debug("turn stream ended early, replaying",
		"conversation", resolvedID, "turn", acc.TurnID(), "cursor", acc.LastEventID())

	replay, finalID, err := r.runSegment(ctx, resolvedID, OpenOptions{
		ResumeFromEventID: acc.LastEventID(),
	}, attempt+1)

	return Merge(result, replay), finalID, err
}
