package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type masterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) repositories.MasterDataRepository {
	return &masterDataRepository{db: db}
}

type masterRow struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// userColumn is the users column referencing the kind's table.
// Table names come from a closed set so they are safe to interpolate.
func userColumn(kind models.MasterDataKind) (string, error) {
	switch kind {
	case models.KindTeam:
		return "team_id", nil
	case models.KindDesignation:
		return "designation_id", nil
	case models.KindLocation:
		return "location_id", nil
	}
	return "", fmt.Errorf("unknown master data kind %q", kind)
}

func (r *masterDataRepository) List(ctx context.Context, kind models.MasterDataKind) ([]models.MasterDataItem, error) {
	col, err := userColumn(kind)
	if err != nil {
		return nil, err
	}

	var items []models.MasterDataItem
	err = r.db.WithContext(ctx).
		Table(string(kind)+" m").
		Select("m.id, m.name, m.created_at, COUNT(u.id) AS user_count").
		Joins(fmt.Sprintf("LEFT JOIN users u ON u.%s = m.id AND u.deleted_at IS NULL", col)).
		Group("m.id, m.name, m.created_at").
		Order("m.name ASC").
		Scan(&items).Error
	if err != nil {
		return nil, handleDBError(err, "list "+string(kind))
	}
	return items, nil
}

func (r *masterDataRepository) Create(ctx context.Context, kind models.MasterDataKind, name string) (*models.MasterDataItem, error) {
	if _, err := userColumn(kind); err != nil {
		return nil, err
	}
	row := masterRow{Name: strings.TrimSpace(name)}
	if err := r.db.WithContext(ctx).Table(string(kind)).Create(&row).Error; err != nil {
		return nil, handleDBError(err, "create "+string(kind))
	}
	return &models.MasterDataItem{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (r *masterDataRepository) Rename(ctx context.Context, kind models.MasterDataKind, id uint, name string) error {
	if _, err := userColumn(kind); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(string(kind)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": strings.TrimSpace(name), "updated_at": time.Now()})
	return requireAffected(res, "rename "+string(kind))
}

func (r *masterDataRepository) Delete(ctx context.Context, kind models.MasterDataKind, id uint) error {
	col, err := userColumn(kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.User{}).
			Where(col+" = ?", id).
			Update(col, nil).Error; err != nil {
			return handleDBError(err, "detach users from "+string(kind))
		}
		res := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", kind), id)
		return requireAffected(res, "delete "+string(kind))
	})
}

func (r *masterDataRepository) Exists(ctx context.Context, kind models.MasterDataKind, id uint) (bool, error) {
	if _, err := userColumn(kind); err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Table(string(kind)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, handleDBError(err, "check "+string(kind))
	}
	return count > 0, nil
}
