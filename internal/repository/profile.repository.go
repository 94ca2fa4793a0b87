package repository

import (
	"context"
	"errors"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileEntity struct {
	ID   string `db:"id"   gorm:"primaryKey;type:uuid;column:id"`
	Role string `db:"role" gorm:"column:role;not null"`
}

func (ProfileEntity) TableName() string {
	return "profiles"
}

type ProfileRepository struct {
	*pg.DB
}

func NewProfileRepository(db *pg.DB) *ProfileRepository {
	return &ProfileRepository{
		db,
	}
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	entity := &ProfileEntity{ID: p.ID, Role: string(p.Role)}
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(entity).
		Error
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var entity ProfileEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return &model.Profile{ID: entity.ID, Role: model.Role(entity.Role)}, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	return r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ProfileEntity{}).
		Error
}
