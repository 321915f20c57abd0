package types

import "time"

// Session is one conversation thread. CreatedAt/UpdatedAt are
// append-only bookkeeping; the row itself is never mutated except to
// bump UpdatedAt when a message is appended.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

// Message is one persisted turn, user or assistant. FileIDs is
// exactly the attachment set this message arrived with - it is never
// merged with a prior message's attachments, per the non-inheriting
// attachment invariant.
type Message struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"index" json:"session_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Model       string    `json:"model,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
	FileIDs     []string  `gorm:"serializer:json" json:"file_ids,omitempty"`
	ToolResults []ToolResult `gorm:"serializer:json" json:"tool_results,omitempty"`
	ArtifactID  string    `json:"artifact_id,omitempty"`
	IsError     bool      `json:"is_error,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// Artifact is a persisted chart/clarification/document-derived
// side-output of a turn, versioned so a later turn can refine it in
// place instead of creating a new one.
type Artifact struct {
	ID        string            `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"index" json:"user_id"`
	SessionID string            `gorm:"index" json:"session_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Content   map[string]interface{} `gorm:"serializer:json" json:"content"`
	Versions  []ArtifactVersion `gorm:"serializer:json" json:"versions,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Artifact) TableName() string { return "chat_artifacts" }

// ArtifactVersion snapshots Content as of one prior update.
type ArtifactVersion struct {
	Content   map[string]interface{} `json:"content"`
	UpdatedAt time.Time              `json:"updated_at"`
}
