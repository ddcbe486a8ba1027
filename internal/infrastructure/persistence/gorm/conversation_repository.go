package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository implements the conversation repository interface using GORM
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) outbound.ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create persists a new conversation
func (r *ConversationRepository) Create(ctx context.Context, c *conversation.ConversationContext) error {
	return r.db.WithContext(ctx).Create(ConversationToModel(c)).Error
}

// Update saves a conversation's current state
func (r *ConversationRepository) Update(ctx context.Context, c *conversation.ConversationContext) error {
	result := r.db.WithContext(ctx).Save(ConversationToModel(c))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conversation.ErrConversationNotFound
	}
	return nil
}

// Delete removes a conversation
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ConversationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conversation.ErrConversationNotFound
	}
	return nil
}

// FindByID loads a conversation by id
func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.ConversationContext, error) {
	var model ConversationModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, result.Error
	}
	return ModelToConversation(&model), nil
}

// FindByOwner loads a page of an owner's conversations, most recently
// updated first
func (r *ConversationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*conversation.ConversationContext, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&ConversationModel{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ConversationModel
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	conversations := make([]*conversation.ConversationContext, len(models))
	for i := range models {
		conversations[i] = ModelToConversation(&models[i])
	}
	return conversations, int(total), nil
}
