package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elee1766/threadchat/src/aisdk"
	"github.com/google/uuid"
)

// Checkpoint sources.
const (
	SourceInput = "input"
	SourceLoop  = "loop"
)

// Checkpoint is a durable snapshot marker of a thread. MessageCount is the
// length of the thread's sequence once this checkpoint is committed.
type Checkpoint struct {
	ID           string    `json:"id" db:"id"`
	ThreadID     string    `json:"thread_id" db:"thread_id"`
	ParentID     string    `json:"parent_id,omitempty" db:"parent_id"`
	Step         int       `json:"step" db:"step"`
	MessageCount int       `json:"message_count" db:"message_count"`
	Source       string    `json:"source" db:"source"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NextCheckpoint builds the checkpoint that follows parent after adding n
// messages. parent may be nil for a new thread.
func NextCheckpoint(threadID string, parent *Checkpoint, n int, source string) *Checkpoint {
	cp := &Checkpoint{
		ID:           uuid.New().String(),
		ThreadID:     threadID,
		MessageCount: n,
		Source:       source,
		CreatedAt:    time.Now().UTC(),
	}
	if parent != nil {
		cp.ParentID = parent.ID
		cp.Step = parent.Step + 1
		cp.MessageCount = parent.MessageCount + n
	}
	return cp
}

// SourceFor picks the checkpoint source for a batch of messages.
func SourceFor(msgs []*aisdk.Message) string {
	for _, m := range msgs {
		if m != nil && m.Role == aisdk.RoleUser {
			return SourceInput
		}
	}
	return SourceLoop
}

// MessageRow is the persisted form of an aisdk.Message.
type MessageRow struct {
	ID           string        `db:"id"`
	ThreadID     string        `db:"thread_id"`
	CheckpointID string        `db:"checkpoint_id"`
	Position     int           `db:"position"`
	Role         string        `db:"role"`
	Content      string        `db:"content"`
	Name         string        `db:"name"`
	ToolCallID   string        `db:"tool_call_id"`
	IsError      bool          `db:"is_error"`
	ToolCalls    JSONToolCalls `db:"tool_calls"`
	CreatedAt    time.Time     `db:"created_at"`
}

// NewMessageRow maps msg to its row at the given position.
func NewMessageRow(cp *Checkpoint, position int, msg *aisdk.Message) MessageRow {
	created := msg.CreatedAt
	if created.IsZero() {
		created = cp.CreatedAt
	}
	return MessageRow{
		ID:           uuid.New().String(),
		ThreadID:     cp.ThreadID,
		CheckpointID: cp.ID,
		Position:     position,
		Role:         msg.Role,
		Content:      msg.Content,
		Name:         msg.Name,
		ToolCallID:   msg.ToolCallID,
		IsError:      msg.IsError,
		ToolCalls:    JSONToolCalls(msg.ToolCalls),
		CreatedAt:    created.UTC(),
	}
}

// Message converts the row back to an aisdk.Message.
func (r MessageRow) Message() *aisdk.Message {
	return &aisdk.Message{
		Role:       r.Role,
		Content:    r.Content,
		Name:       r.Name,
		ToolCallID: r.ToolCallID,
		IsError:    r.IsError,
		ToolCalls:  []aisdk.ToolCall(r.ToolCalls),
		CreatedAt:  r.CreatedAt,
	}
}

// JSONToolCalls stores a tool-call list as a JSON string column.
type JSONToolCalls []aisdk.ToolCall

// Scan implements the sql.Scanner interface for JSONToolCalls
func (j *JSONToolCalls) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" || v == "null" {
			*j = nil
			return nil
		}
		return json.Unmarshal([]byte(v), j)
	case []byte:
		if len(v) == 0 || string(v) == "null" {
			*j = nil
			return nil
		}
		return json.Unmarshal(v, j)
	default:
		return fmt.Errorf("cannot scan type %T into JSONToolCalls", value)
	}
}

// Value implements the driver.Valuer interface for JSONToolCalls
func (j JSONToolCalls) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
