package app

import (
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/repos"
)

type Repos struct {
	Session         repos.SessionRepo
	Message         repos.MessageRepo
	Document        repos.DocumentRepo
	StudentProfile  repos.StudentProfileRepo
	AcademicHistory repos.AcademicHistoryRepo
	EnglishTest     repos.EnglishTestRepo
	StudyPreference repos.StudyPreferenceRepo
	AICallLog       repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Session:         repos.NewSessionRepo(db, log),
		Message:         repos.NewMessageRepo(db, log),
		Document:        repos.NewDocumentRepo(db, log),
		StudentProfile:  repos.NewStudentProfileRepo(db, log),
		AcademicHistory: repos.NewAcademicHistoryRepo(db, log),
		EnglishTest:     repos.NewEnglishTestRepo(db, log),
		StudyPreference: repos.NewStudyPreferenceRepo(db, log),
		AICallLog:       repos.NewAICallLogRepo(db, log),
	}
}
