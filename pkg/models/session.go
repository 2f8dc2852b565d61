package models

import "time"

// MessageRole tags the author of a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single turn of the conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	At      time.Time   `json:"at"`
}

// Session is the per-(user, agent) conversational context.
type Session struct {
	UserID          string    `json:"user_id"`
	AgentID         string    `json:"agent_id"`
	History         []Message `json:"history"`
	PendingWorkflow *Workflow `json:"pending_workflow,omitempty"`
	Iteration       int       `json:"iteration"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSession creates an empty session for the given pair.
func NewSession(userID, agentID string) *Session {
	now := time.Now().UTC()

	return &Session{
		UserID:    userID,
		AgentID:   agentID,
		History:   make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the history.
func (s *Session) Append(role MessageRole, content string) {
	now := time.Now().UTC()
	s.History = append(s.History, Message{Role: role, Content: content, At: now})
	s.UpdatedAt = now
}

// Recent returns at most n of the latest messages.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}

	return s.History[len(s.History)-n:]
}

// PendingStatus returns the status of the pending workflow, or "" when none.
func (s *Session) PendingStatus() WorkflowStatus {
	if s.PendingWorkflow == nil {
		return ""
	}

	return s.PendingWorkflow.Status
}
