package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatSession groups the analysis turns a user runs against one dataset.
type ChatSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null" json:"userId"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DatasetID *uint          `json:"datasetId,omitempty"`
	Dataset   *Dataset       `gorm:"foreignKey:DatasetID" json:"dataset,omitempty"`
	Title     string         `json:"title"`
	Messages  []ChatMessage  `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChatMessage is one turn. Assistant turns that produced runnable code keep
// the code and the artifact (or the failure kind) alongside the prose.
type ChatMessage struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SessionID   uint            `gorm:"not null;index" json:"sessionId"`
	Role        ChatRole        `gorm:"not null;type:varchar(20)" json:"role"`
	Content     string          `gorm:"type:text" json:"content"`
	Code        string          `gorm:"type:text" json:"code,omitempty"`
	Artifact    ArtifactPayload `gorm:"type:jsonb" json:"artifact,omitempty"`
	FailureKind string          `gorm:"type:varchar(30)" json:"failureKind,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Failure kinds persisted on assistant turns whose code did not produce an
// artifact.
const (
	FailureSanitization = "sanitization"
	FailureTimeout      = "timeout"
	FailureEmptyResult  = "empty_result"
	FailureRuntimeFault = "runtime_fault"
)

// ArtifactPayload is the JSON rendering of a sandbox artifact.
type ArtifactPayload struct {
	Kind   string          `json:"kind,omitempty"`
	Data   json.RawMessage `json:"value,omitempty"`
	Stdout string          `json:"stdout,omitempty"`
}

func (a ArtifactPayload) Value() (driver.Value, error) {
	if a.Kind == "" {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *ArtifactPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan ArtifactPayload: expected []byte")
	}
	return json.Unmarshal(bytes, a)
}
