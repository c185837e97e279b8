package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-labs/intake-backend/internal/intake"
	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/repos"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

type fakeDocumentRepo struct {
	repos.DocumentRepo
	updateCtxErr error
	updates      map[string]interface{}
}

func (f *fakeDocumentRepo) UpdateFields(dbc dbctx.Context, _ uuid.UUID, updates map[string]interface{}) error {
	f.updateCtxErr = dbc.Ctx.Err()
	f.updates = updates
	return nil
}

type stalledChatService struct {
	IntakeChatService
}

// IngestDocumentText fails the way a slow model call does once the processing
// deadline has passed.
func (s *stalledChatService) IngestDocumentText(ctx context.Context, _, _ uuid.UUID, _ string) (intake.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestProcessFailureWriteSurvivesExpiredDeadline(t *testing.T) {
	docs := &fakeDocumentRepo{}
	svc := &documentIngestService{
		chat:      &stalledChatService{},
		documents: docs,
		timeout:   time.Nanosecond,
		log:       testLogger(t),
	}

	svc.process(uuid.New(), uuid.New(), "notes.txt", "text/plain", []byte("IELTS 7.5"))

	if docs.updates == nil {
		t.Fatal("failure was not recorded")
	}
	if docs.updates["status"] != types.DocumentStatusFailed {
		t.Fatalf("status = %v, want %v", docs.updates["status"], types.DocumentStatusFailed)
	}
	if docs.updateCtxErr != nil {
		t.Fatalf("status update ran on a dead context: %v", docs.updateCtxErr)
	}
}
