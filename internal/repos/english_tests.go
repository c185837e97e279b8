package repos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

// EnglishTestRepo upserts by (session_id, test_name): one row per test,
// later extractions overlay the score and date on the existing row.
type EnglishTestRepo interface {
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EnglishTest, error)
	UpsertByName(dbc dbctx.Context, sessionID uuid.UUID, testName string, updates map[string]interface{}) error
}

type englishTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnglishTestRepo(db *gorm.DB, log *logger.Logger) EnglishTestRepo {
	return &englishTestRepo{db: db, log: log.With("repo", "EnglishTestRepo")}
}

func (r *englishTestRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.EnglishTest, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.EnglishTest
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.EnglishTest{}).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *englishTestRepo) UpsertByName(dbc dbctx.Context, sessionID uuid.UUID, testName string, updates map[string]interface{}) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	testName = strings.TrimSpace(testName)
	if testName == "" {
		return fmt.Errorf("missing test_name")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	updates["updated_at"] = time.Now().UTC()
	res := txx.WithContext(dbc.Ctx).
		Model(&types.EnglishTest{}).
		Where("session_id = ? AND LOWER(test_name) = LOWER(?)", sessionID, testName).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	updates["session_id"] = sessionID
	updates["test_name"] = testName
	return txx.WithContext(dbc.Ctx).
		Model(&types.EnglishTest{}).
		Create(updates).Error
}
