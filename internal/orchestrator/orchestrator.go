// Package orchestrator owns turn lifecycles across conversations.
//
// It enforces at most one active turn per conversation key, allocates
// temporary conversation ids for brand-new chats (the backend assigns the
// real id via the turn's first META event), rekeys in-flight turns on id
// resolution, and caches final results for commands that run after the
// stream has finished.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hatch-dev/cli/internal/dispatch"
	"github.com/hatch-dev/cli/internal/state"
	"github.com/hatch-dev/cli/internal/stream"
	"github.com/hatch-dev/cli/internal/telemetry"
)

// ErrTurnInFlight is returned when a turn is started for a conversation that
// already has one running.
var ErrTurnInFlight = errors.New("conversation already has an active turn")

// tempIDPrefix marks placeholder conversation ids awaiting backend resolution.
const tempIDPrefix = "tmp-"

// Orchestrator starts turns, owns their cancellation, and feeds results into
// the per-conversation result cache.
type Orchestrator struct {
	opener     stream.Opener
	store      *state.Store
	dispatcher *dispatch.Dispatcher

	// OnResolve, when set before a turn starts, is invoked after a
	// temporary conversation id is resolved to its backend id. UIs use it
	// to follow the rename while the turn is still streaming.
	OnResolve func(oldID, newID string)

	mu      sync.Mutex
	active  map[string]context.CancelFunc
	results map[string]stream.Result
}

// New creates an orchestrator flushing actions into store via a dispatcher
// built on the given scheduler (nil for the timer fallback).
func New(opener stream.Opener, store *state.Store, sched dispatch.Scheduler) *Orchestrator {
	return &Orchestrator{
		opener:     opener,
		store:      store,
		dispatcher: dispatch.New(store.ApplyBatch, sched),
		active:     map[string]context.CancelFunc{},
		results:    map[string]stream.Result{},
	}
}

// Store exposes the conversation state map for read access and subscriptions.
func (o *Orchestrator) Store() *state.Store { return o.store }

// NewConversationID allocates a temporary conversation id for a chat that
// does not exist on the backend yet.
func (o *Orchestrator) NewConversationID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTemporaryID reports whether an id is a client-allocated placeholder.
func IsTemporaryID(id string) bool {
	return len(id) > len(tempIDPrefix) && id[:len(tempIDPrefix)] == tempIDPrefix
}

// RunTurn executes one turn for a conversation, blocking until the turn
// completes, fails, or ctx is cancelled. It returns the final accumulation
// result and the conversation id the turn ended under (which differs from
// the input when a temporary id was resolved).
func (o *Orchestrator) RunTurn(ctx context.Context, conversationID, prompt string) (stream.Result, string, error) {
	turnCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	if _, busy := o.active[conversationID]; busy {
		o.mu.Unlock()
		cancel()
		return stream.Result{}, conversationID, fmt.Errorf("%w: %s", ErrTurnInFlight, conversationID)
	}
	o.active[conversationID] = cancel
	o.mu.Unlock()

	finalID := conversationID
	onResolve := func(oldID, newID string) {
		o.mu.Lock()
		if c, ok := o.active[oldID]; ok {
			// Keep the old key so Cancel still works for callers holding
			// the id the turn was started under.
			o.active[newID] = c
		}
		o.mu.Unlock()
		finalID = newID
		if o.OnResolve != nil {
			o.OnResolve(oldID, newID)
		}
	}

	tracer := telemetry.Tracer()
	turnCtx, span := tracer.Start(turnCtx, "turn")
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	runner := stream.NewRunner(o.opener, o.dispatcher, onResolve)
	result, err := runner.Run(turnCtx, conversationID, prompt)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(
		attribute.String("conversation.resolved_id", finalID),
		attribute.Int("turn.completed_files", len(result.CompletedFiles)),
		attribute.Bool("turn.replayed", errorsIsReplay(err)),
	)
	span.End()

	o.mu.Lock()
	delete(o.active, finalID)
	delete(o.active, conversationID)
	o.results[finalID] = result
	o.mu.Unlock()

	cancel()
	return result, finalID, err
}

// Cancel aborts the active turn for a conversation, if any. Already-applied
// state mutations stay; the streaming flag clears as the run loop unwinds.
func (o *Orchestrator) Cancel(conversationID string) {
	o.mu.Lock()
	cancel, ok := o.active[conversationID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// Result returns the cached final result for a conversation's last turn.
func (o *Orchestrator) Result(conversationID string) (stream.Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.results[conversationID]
	return r, ok
}

// Finalize runs the turn's terminal housekeeping: once the caller has
// consumed the result (persisted the message, refreshed caches), the
// conversation's stream entry is removed from the state map.
func (o *Orchestrator) Finalize(ctx context.Context, conversationID string) error {
	o.dispatcher.Enqueue(state.RemoveStream{ConversationID: conversationID})
	return o.dispatcher.Wait(ctx)
}

// errorsIsReplay reports whether the turn went through replay recovery and
// still failed; used only as a span attribute.
func errorsIsReplay(err error) bool {
	return errors.Is(err, stream.ErrDisconnected)
}
