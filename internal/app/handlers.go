package app

import (
	"github.com/brightpath-labs/intake-backend/internal/handlers"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
)

type Handlers struct {
	Intake *handlers.IntakeHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Intake: handlers.NewIntakeHandler(log, services.IntakeChat, services.DocumentIngest),
	}
}
