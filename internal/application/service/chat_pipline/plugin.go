// Package chatpipline implements the event-driven plugin chain that
// carries one chat turn from a resolved session through tool dispatch,
// prompt assembly, streaming, and persistence. The Plugin/EventManager
// shape is grounded in the self-registering-constructor, next()-chaining
// pattern this package's plugins all follow.
package chatpipline

import (
	"context"

	apperrors "github.com/saptiva-ai/bankcopilot/internal/errors"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// PluginError is the error type a Plugin's OnEvent returns. It is the
// same typed taxonomy (internal/errors.AppError) every other
// component surfaces, so a plugin failure reaches the HTTP/SSE
// adapter with the same machine code and HTTP-status analog as a
// failure from every component from the metric registry through document ingestion.
type PluginError = apperrors.AppError

// Each of these constructs a fresh *PluginError per call rather than
// sharing one package-level instance, since AppError.WithError
// mutates its receiver and a shared instance would race across
// concurrently running turns.
func ErrSessionResolve(cause error) *PluginError {
	return apperrors.NewBackendUnavailable("session store", cause)
}

func ErrContextPrepare(cause error) *PluginError {
	return apperrors.NewInternalServerError("failed to prepare document context").WithError(cause)
}

func ErrToolDispatch(cause error) *PluginError {
	return apperrors.NewInternalServerError("tool dispatch failed").WithError(cause)
}

func ErrTemplateExecute(cause error) *PluginError {
	return apperrors.NewInternalServerError("failed to render prompt template").WithError(cause)
}

func ErrStreamLLM(cause error) *PluginError {
	return apperrors.NewBackendUnavailable("chat model", cause)
}

func ErrPersist(cause error) *PluginError {
	return apperrors.NewInternalServerError("failed to persist message").WithError(cause)
}

// Plugin is one stage of the chat pipeline turn state machine. ActivationEvents
// declares which EventType values this plugin handles; OnEvent runs
// the stage's work and then either calls next() to continue the
// chain or returns a *PluginError to abort the turn (routing it to
// the PersistError stage).
type Plugin interface {
	ActivationEvents() []types.EventType
	OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError
}

// EventManager owns the registered plugins and drives one named
// pipeline (a types.Pipline entry) to completion by building a chain
// of next() continuations, innermost-last, and invoking the first
// one.
type EventManager struct {
	plugins map[types.EventType][]Plugin
}

// NewEventManager constructs an empty registry; plugins register
// themselves via Register during construction, via each NewPlugin*
// constructor in this package.
func NewEventManager() *EventManager {
	return &EventManager{plugins: make(map[types.EventType][]Plugin)}
}

// Register adds p under every event type it activates on. A single
// event type may have more than one plugin registered; all run in
// registration order before the chain advances to the next event.
func (m *EventManager) Register(p Plugin) {
	for _, evt := range p.ActivationEvents() {
		m.plugins[evt] = append(m.plugins[evt], p)
	}
}

// Run drives the named pipeline's event sequence to completion,
// short-circuiting on the first *PluginError any plugin returns. An
// event with no registered plugin is skipped, so a pipeline can name
// a stage that only matters for some turn shapes.
func (m *EventManager) Run(ctx context.Context, pipelineName string, chatManage *types.ChatManage) *PluginError {
	sequence, ok := types.Pipline[pipelineName]
	if !ok {
		return apperrors.NewInternalServerError("unknown pipeline: " + pipelineName)
	}
	return m.runFrom(ctx, sequence, 0, chatManage)
}

func (m *EventManager) runFrom(ctx context.Context, sequence []types.EventType, idx int, chatManage *types.ChatManage) *PluginError {
	if idx >= len(sequence) {
		return nil
	}
	eventType := sequence[idx]
	next := func() *PluginError {
		return m.runFrom(ctx, sequence, idx+1, chatManage)
	}

	plugins, ok := m.plugins[eventType]
	if !ok || len(plugins) == 0 {
		return next()
	}
	return m.runPlugins(ctx, eventType, plugins, 0, chatManage, next)
}

// runPlugins chains the plugins registered for one event type before
// handing off to the pipeline's next event, so two plugins on the
// same event compose the same way two stages in the sequence do.
func (m *EventManager) runPlugins(ctx context.Context, eventType types.EventType, plugins []Plugin, idx int, chatManage *types.ChatManage, tail func() *PluginError) *PluginError {
	if idx >= len(plugins) {
		return tail()
	}
	next := func() *PluginError {
		return m.runPlugins(ctx, eventType, plugins, idx+1, chatManage, tail)
	}
	return plugins[idx].OnEvent(ctx, eventType, chatManage, next)
}
