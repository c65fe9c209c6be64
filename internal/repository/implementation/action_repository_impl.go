package implementation

import (
	"context"
	"errors"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/mapper"
	"fleet-assistant-be/internal/model"
	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ActionMapper
}

func NewActionRepository(db *gorm.DB) contract.ActionRepository {
	return &ActionRepositoryImpl{
		db:     db,
		mapper: mapper.NewActionMapper(),
	}
}

func (r *ActionRepositoryImpl) Create(ctx context.Context, action *entity.Action) error {
	m := r.mapper.ToModel(action)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*action = *r.mapper.ToEntity(m)
	return nil
}

func (r *ActionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Action, error) {
	var m model.Action
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ActionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Action, error) {
	var models []*model.Action
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Action, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ActionRepositoryImpl) Transition(ctx context.Context, id uuid.UUID, from []entity.ActionStatus, to entity.ActionStatus, changes contract.ActionChanges) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now().UTC(),
	}
	if changes.ConfirmedAt != nil {
		updates["confirmed_at"] = *changes.ConfirmedAt
	}
	if changes.ExecutedAt != nil {
		updates["executed_at"] = *changes.ExecutedAt
	}
	if changes.CancelledAt != nil {
		updates["cancelled_at"] = *changes.CancelledAt
	}
	if changes.Result != nil {
		updates["result"] = datatypes.JSON(changes.Result)
	}
	if changes.Error != nil {
		updates["error"] = *changes.Error
	}

	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	// The status predicate makes this a compare-and-set: concurrent callers
	// serialize on the row and only the first sees RowsAffected == 1.
	res := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
