package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/repos"
	"github.com/brightpath-labs/intake-backend/internal/types"
	"github.com/brightpath-labs/intake-backend/internal/utils"
)

// DocumentIngestService accepts an uploaded file, stores it, and processes it
// in the background: text extraction, field extraction, and profile merge all
// happen off the request path.
type DocumentIngestService interface {
	QueueDocument(ctx context.Context, sessionID uuid.UUID, filename, mimeType string, data []byte) (*types.Document, error)
}

type documentIngestService struct {
	chat       IntakeChatService
	sessions   repos.SessionRepo
	documents  repos.DocumentRepo
	storageDir string
	timeout    time.Duration
	log        *logger.Logger
}

func NewDocumentIngestService(
	chat IntakeChatService,
	sessions repos.SessionRepo,
	documents repos.DocumentRepo,
	log *logger.Logger,
) DocumentIngestService {
	storageDir := utils.GetEnv("UPLOAD_DIR", "/tmp/uploads", log)
	timeoutSec := utils.GetEnvAsInt("DOCUMENT_PROCESS_TIMEOUT_SECONDS", 120, log)
	return &documentIngestService{
		chat:       chat,
		sessions:   sessions,
		documents:  documents,
		storageDir: storageDir,
		timeout:    time.Duration(timeoutSec) * time.Second,
		log:        log.With("service", "DocumentIngestService"),
	}
}

func (s *documentIngestService) QueueDocument(ctx context.Context, sessionID uuid.UUID, filename, mimeType string, data []byte) (*types.Document, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.sessions.GetByID(dbc, sessionID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %s", filename)
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	storageKey := filepath.Join(s.storageDir, fmt.Sprintf("%s_%s", sessionID, filepath.Base(filename)))
	if err := os.WriteFile(storageKey, data, 0o644); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc, err := s.documents.Create(dbc, &types.Document{
		SessionID:       sessionID,
		StorageKey:      storageKey,
		Filename:        filename,
		DocType:         mimeType,
		Status:          types.DocumentStatusQueued,
		ExtractedFields: datatypes.JSON([]byte(`{}`)),
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	go s.process(doc.ID, sessionID, filename, mimeType, data)
	return doc, nil
}

func (s *documentIngestService) process(documentID, sessionID uuid.UUID, filename, mimeType string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	text, err := ExtractText(filename, mimeType, data)
	if err != nil {
		s.markFailed(documentID, err)
		return
	}
	if _, err := s.chat.IngestDocumentText(ctx, sessionID, documentID, text); err != nil {
		s.markFailed(documentID, err)
		return
	}
	s.log.Info("document processed", "document_id", documentID.String(), "session_id", sessionID.String())
}

// markFailed uses its own context: the processing context may already be
// expired or cancelled, and the status write must still land.
func (s *documentIngestService) markFailed(documentID uuid.UUID, cause error) {
	s.log.Warn("document processing failed", "document_id", documentID.String(), "error", cause)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.documents.UpdateFields(dbc, documentID, map[string]interface{}{
		"status": types.DocumentStatusFailed,
	}); err != nil {
		s.log.Error("document status update failed", "document_id", documentID.String(), "error", err)
	}
}
