package store

import (
	"context"

	"gorm.io/datatypes"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
)

// NewChatMessage is one conversation turn to append to a thread.
type NewChatMessage struct {
	ThreadID string
	Role     string
	Content  string
	Metadata datatypes.JSON
}

// AppendChatMessage stores one turn of agent conversation history.
func (s *Store) AppendChatMessage(ctx context.Context, id session.Identity, msg NewChatMessage) (*database.ChatMessage, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	row := database.ChatMessage{
		ProfileID: id.UserID,
		ThreadID:  msg.ThreadID,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  msg.Metadata,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, failed("messages.append", err)
	}
	return &row, nil
}

// ListThreadMessages returns a thread's history in insertion order.
func (s *Store) ListThreadMessages(ctx context.Context, id session.Identity, threadID string) ([]database.ChatMessage, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var messages []database.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("profile_id = ? AND thread_id = ?", id.UserID, threadID).
		Order("created_at").
		Find(&messages).Error; err != nil {
		return nil, failed("messages.list", err)
	}
	return messages, nil
}

// ListThreads returns the caller's distinct thread ids, most recent first.
func (s *Store) ListThreads(ctx context.Context, id session.Identity) ([]string, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	var threads []string
	if err := s.db.WithContext(ctx).
		Model(&database.ChatMessage{}).
		Where("profile_id = ?", id.UserID).
		Group("thread_id").
		Order("MAX(created_at) DESC").
		Pluck("thread_id", &threads).Error; err != nil {
		return nil, failed("messages.threads", err)
	}
	return threads, nil
}
