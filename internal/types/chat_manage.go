package types

import "time"

// ChatManage carries one turn's request, intermediate state, and
// response as it flows through the chat_pipline plugin chain (the chat pipeline).
// Every plugin reads the fields it needs and writes the ones it
// produces; nothing here is safe for concurrent mutation by two
// plugins at once, which is why the orchestrator runs the chain
// sequentially per turn.
type ChatManage struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`

	Query   string   `json:"query"`
	Model   string   `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	RequestedMaxTokens int `json:"max_tokens,omitempty"`
	Stream  bool     `json:"stream"`

	// FileIDs is exactly the attachment set this message arrived
	// with. It is never merged with a prior turn's attachments:
	// session adoption of attachments is non-inheriting.
	FileIDs     []string        `json:"file_ids,omitempty"`
	DocumentIDs []string        `json:"document_ids,omitempty"`
	ToolsEnabled map[string]bool `json:"tools_enabled,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	History []ChatHistoryTurn `json:"-"`

	// Populated by PREPARE_CONTEXT / ADOPT_FILES / INGEST_IF_PENDING.
	DocumentContext    string   `json:"-"`
	DocumentContextWarning string `json:"-"`
	PendingDocumentIDs []string `json:"-"`

	// Populated by CALL_TOOLS.
	ToolResults   []ToolResult      `json:"-"`
	AnalyticsHit  *AnalyticsResult  `json:"-"`
	AnalyticsSQL  string            `json:"-"`

	// Populated by BUILD_PROMPT.
	SystemPrompt string `json:"-"`
	MaxTokens    int    `json:"-"`

	// Populated by STREAM_LLM.
	ResponseContent string `json:"-"`
	UsedFallback    bool   `json:"-"`
	Strategy        string `json:"-"`

	// Populated by PERSIST_ASSISTANT / PERSIST_ERROR.
	ArtifactID string `json:"-"`
	Err        error  `json:"-"`

	StartedAt time.Time `json:"-"`

	// Events receives the SSE-shaped events the orchestrator and
	// plugins emit as the turn progresses; nil disables emission
	// (useful for the non-streaming JSON response path, which only
	// cares about the final ChatManage state).
	Events chan ChatEvent `json:"-"`
}

// ChatHistoryTurn is one prior user/assistant exchange, already
// trimmed by RESOLVE_SESSION to its most recent historyRounds rounds.
type ChatHistoryTurn struct {
	Role    string
	Content string
}

// ToolResult records one the chat pipeline tool invocation for persistence and for
// the non-streaming response's tools_used[] field.
type ToolResult struct {
	Name       string                 `json:"name"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"duration_ms"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// Clone returns a deep-enough copy of c for a new turn sharing the
// same session: slices the caller might still hold a reference to
// are copied, channels and pointers to this turn's own output are
// reset.
func (c *ChatManage) Clone() *ChatManage {
	fileIDs := append([]string(nil), c.FileIDs...)
	documentIDs := append([]string(nil), c.DocumentIDs...)
	tools := make(map[string]bool, len(c.ToolsEnabled))
	for k, v := range c.ToolsEnabled {
		tools[k] = v
	}
	return &ChatManage{
		SessionID:          c.SessionID,
		UserID:             c.UserID,
		Query:              c.Query,
		Model:              c.Model,
		Temperature:        c.Temperature,
		RequestedMaxTokens: c.RequestedMaxTokens,
		Stream:             c.Stream,
		FileIDs:            fileIDs,
		DocumentIDs:        documentIDs,
		ToolsEnabled:       tools,
	}
}

// EventType names one stage of the chat pipeline turn state machine.
type EventType string

const (
	ResolveSession   EventType = "resolve_session"
	PrepareContext   EventType = "prepare_context"
	AdoptFiles       EventType = "adopt_files"
	IngestIfPending  EventType = "ingest_if_pending"
	CallTools        EventType = "call_tools"
	BuildPrompt      EventType = "build_prompt"
	StreamLLM        EventType = "stream_llm"
	PersistAssistant EventType = "persist_assistant"
	PersistError     EventType = "persist_error"
)

// Pipline names the two turn shapes a request can take: a plain
// conversational turn never touches the document/tool machinery,
// while the default turn runs the full state machine. Kept as a map
// (rather than one hardcoded slice) so a future
// third shape - e.g. a tools-only turn with no persistence - has
// somewhere to live without touching the orchestrator.
var Pipline = map[string][]EventType{
	"chat": {
		ResolveSession,
		BuildPrompt,
		StreamLLM,
		PersistAssistant,
	},
	"chat_with_context": {
		ResolveSession,
		PrepareContext,
		AdoptFiles,
		IngestIfPending,
		CallTools,
		BuildPrompt,
		StreamLLM,
		PersistAssistant,
	},
}
