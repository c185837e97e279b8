package repos

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

type AICallLogRepo interface {
	Create(dbc dbctx.Context, row *types.AICallLog) (*types.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, log *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{db: db, log: log.With("repo", "AICallLogRepo")}
}

func (r *aiCallLogRepo) Create(dbc dbctx.Context, row *types.AICallLog) (*types.AICallLog, error) {
	if row == nil {
		return nil, fmt.Errorf("missing call log row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
