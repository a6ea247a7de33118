package models

import "time"

// Message represents one turn in the conversation. A message is immutable once created; the
// transcript is the append-only sequence of messages in insertion order.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Sources holds the retrieval evidence backing an assistant answer. It is empty on user
	// messages and on assistant messages that were not produced via retrieval.
	Sources []Source

	// Err marks a failed exchange rendered in place of a normal answer.
	Err bool
}

// Source is one evidence snippet backing an assistant answer. Sources are immutable once
// attached to a message and do not outlive it.
type Source struct {
	Collection     string  `json:"collection"`
	RelevanceScore float64 `json:"relevance_score"`
	Excerpt        string  `json:"excerpt"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message. Only assistant messages may carry sources.
	RoleAssistant Role = "assistant"
)
