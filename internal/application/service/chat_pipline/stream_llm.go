package chatpipline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const pseudoChunkWords = 8

// PluginStreamLLM runs the completion call and feeds chatManage.Events
// (a bounded channel the caller sized to config.Chat.QueueSize) -
// that channel IS the backpressure queue: a slow
// SSE consumer on the other end blocks this producer's send, and a
// canceled ctx (the consumer disconnecting) aborts the producer
// cooperatively via errgroup.
type PluginStreamLLM struct {
	models *ModelRegistry
}

func NewPluginStreamLLM(eventManager *EventManager, models *ModelRegistry) *PluginStreamLLM {
	p := &PluginStreamLLM{models: models}
	eventManager.Register(p)
	return p
}

func (p *PluginStreamLLM) ActivationEvents() []types.EventType {
	return []types.EventType{types.StreamLLM}
}

func (p *PluginStreamLLM) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	llm := p.models.Resolve(chatManage.Model)
	if llm == nil {
		return ErrStreamLLM(errNoChatModel)
	}

	messages := buildMessages(chatManage.SystemPrompt, chatManage.History, chatManage.Query)
	opts := &chat.ChatOptions{Temperature: chatManage.Temperature, MaxTokens: chatManage.MaxTokens}

	group, gctx := errgroup.WithContext(ctx)
	var content strings.Builder
	var upstreamErr error

	ragPresent := chatManage.AnalyticsHit != nil || chatManage.DocumentContext != ""

	group.Go(func() error {
		if ragPresent {
			resp, err := llm.Chat(gctx, messages, opts)
			if err != nil {
				upstreamErr = err
				return nil
			}
			content.WriteString(resp.Content)
			emitPseudoChunks(gctx, chatManage, resp.Content)
			return nil
		}

		stream, err := llm.ChatStream(gctx, messages, opts)
		if err != nil {
			upstreamErr = err
			return nil
		}
		upstreamErr = p.consumeStream(gctx, chatManage, stream, &content)
		return nil
	})
	_ = group.Wait()

	final := content.String()
	usedFallback := false
	if strings.TrimSpace(final) == "" {
		final = fallbackMessage(chatManage, upstreamErr)
		usedFallback = true
	}

	chatManage.ResponseContent = final
	chatManage.UsedFallback = usedFallback
	chatManage.Strategy = strategyFor(chatManage, ragPresent)

	emit(ctx, chatManage, types.ChatEventChunk, map[string]interface{}{"content": final, "final": true})

	if upstreamErr != nil {
		pipelineWarn(ctx, "stream_llm", "upstream_error", map[string]interface{}{"session_id": chatManage.SessionID, "error": upstreamErr.Error()})
	}
	return next()
}

// consumeStream drains the true-delta channel into content, emitting
// one chunk event per delta, and stops early on cancellation.
func (p *PluginStreamLLM) consumeStream(ctx context.Context, chatManage *types.ChatManage, stream <-chan types.StreamResponse, content *strings.Builder) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp, ok := <-stream:
			if !ok {
				return nil
			}
			if resp.ResponseType == types.ResponseTypeError {
				return errUpstream
			}
			if resp.Content != "" {
				content.WriteString(resp.Content)
				emit(ctx, chatManage, types.ChatEventChunk, map[string]interface{}{"content": resp.Content, "final": false})
			}
			if resp.Done {
				return nil
			}
		}
	}
}

// emitPseudoChunks re-emits a non-streaming response as a handful of
// word-grouped chunk events, so RAG-present turns still look like a
// stream to the client even though the upstream call was synchronous.
func emitPseudoChunks(ctx context.Context, chatManage *types.ChatManage, fullContent string) {
	words := strings.Fields(fullContent)
	if len(words) == 0 {
		return
	}
	for i := 0; i < len(words); i += pseudoChunkWords {
		end := i + pseudoChunkWords
		if end > len(words) {
			end = len(words)
		}
		piece := strings.Join(words[i:end], " ") + " "
		emit(ctx, chatManage, types.ChatEventChunk, map[string]interface{}{"content": piece, "final": false})
	}
}

// fallbackMessage substitutes a scenario-specific message so the
// system never persists or streams an empty assistant message.
func fallbackMessage(chatManage *types.ChatManage, upstreamErr error) string {
	switch {
	case chatManage.DocumentContextWarning != "" && chatManage.DocumentContext == "":
		return "Tus documentos todavía se están procesando; intenta de nuevo en unos segundos."
	case len(chatManage.DocumentIDs) > 0 && chatManage.DocumentContext == "":
		return "No encontramos contenido procesado en los documentos adjuntos para responder tu pregunta."
	case upstreamErr != nil:
		return "No pudimos generar una respuesta en este momento. Intenta de nuevo."
	default:
		return "No tenemos información suficiente para responder esa consulta."
	}
}

func strategyFor(chatManage *types.ChatManage, ragPresent bool) string {
	switch {
	case chatManage.AnalyticsHit != nil:
		return "bank_analytics"
	case ragPresent:
		return "document_rag"
	default:
		return "direct"
	}
}

var errNoChatModel = errUpstreamKind("no chat model configured for this request")
var errUpstream = errUpstreamKind("upstream returned an error chunk")

type errUpstreamKind string

func (e errUpstreamKind) Error() string { return string(e) }
