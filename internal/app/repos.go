package app

import (
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type Repos struct {
	User              repos.UserRepo
	ChatThread        repos.ChatThreadRepo
	ChatMessage       repos.ChatMessageRepo
	UserMemory        repos.UserMemoryRepo
	CommunityProfile  repos.CommunityProfileRepo
	ConnectionRequest repos.ConnectionRequestRepo
	Connection        repos.ConnectionRepo
	JournalEntry      repos.JournalEntryRepo
	JobRun            repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		ChatThread:        repos.NewChatThreadRepo(db, log),
		ChatMessage:       repos.NewChatMessageRepo(db, log),
		UserMemory:        repos.NewUserMemoryRepo(db, log),
		CommunityProfile:  repos.NewCommunityProfileRepo(db, log),
		ConnectionRequest: repos.NewConnectionRequestRepo(db, log),
		Connection:        repos.NewConnectionRepo(db, log),
		JournalEntry:      repos.NewJournalEntryRepo(db, log),
		JobRun:            repos.NewJobRunRepo(db, log),
	}
}
