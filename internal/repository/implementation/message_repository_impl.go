package implementation

import (
	"context"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/mapper"
	"fleet-assistant-be/internal/model"
	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *MessageRepositoryImpl) FindWindow(ctx context.Context, conversationId uuid.UUID, limit int, before *time.Time) ([]*entity.Message, error) {
	inner := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationId)
	if before != nil {
		inner = inner.Where("created_at < ?", *before)
	}
	inner = specification.Chronological{Desc: true}.Apply(inner).Limit(limit)

	// Newest N are picked inside, the outer query restores display order in SQL
	var models []*model.Message
	err := r.db.WithContext(ctx).
		Table("(?) AS recent", inner).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(models), nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) toEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities
}
