package repos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

type AcademicHistoryRepo interface {
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.AcademicHistory, error)
	UpsertFields(dbc dbctx.Context, sessionID uuid.UUID, updates map[string]interface{}) error
}

type academicHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAcademicHistoryRepo(db *gorm.DB, log *logger.Logger) AcademicHistoryRepo {
	return &academicHistoryRepo{db: db, log: log.With("repo", "AcademicHistoryRepo")}
}

func (r *academicHistoryRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.AcademicHistory, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AcademicHistory
	if err := txx.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *academicHistoryRepo) UpsertFields(dbc dbctx.Context, sessionID uuid.UUID, updates map[string]interface{}) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	updates["updated_at"] = time.Now().UTC()
	res := txx.WithContext(dbc.Ctx).
		Model(&types.AcademicHistory{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	updates["session_id"] = sessionID
	return txx.WithContext(dbc.Ctx).
		Model(&types.AcademicHistory{}).
		Create(updates).Error
}
