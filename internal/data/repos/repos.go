package repos

import (
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos/chat"
	"github.com/archisdhar8/religiousAI/internal/data/repos/community"
	"github.com/archisdhar8/religiousAI/internal/data/repos/jobs"
	"github.com/archisdhar8/religiousAI/internal/data/repos/journal"
	"github.com/archisdhar8/religiousAI/internal/data/repos/memory"
	"github.com/archisdhar8/religiousAI/internal/data/repos/user"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ChatThreadRepo = chat.ChatThreadRepo
type ChatMessageRepo = chat.ChatMessageRepo
type MessageHit = chat.MessageHit

type UserMemoryRepo = memory.UserMemoryRepo

type CommunityProfileRepo = community.CommunityProfileRepo
type ConnectionRequestRepo = community.ConnectionRequestRepo
type ConnectionRepo = community.ConnectionRepo

type JournalEntryRepo = journal.JournalEntryRepo

type JobRunRepo = jobs.JobRunRepo
type ClaimPolicy = jobs.ClaimPolicy

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	return chat.NewChatThreadRepo(db, baseLog)
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}

func NewUserMemoryRepo(db *gorm.DB, baseLog *logger.Logger) UserMemoryRepo {
	return memory.NewUserMemoryRepo(db, baseLog)
}

func NewCommunityProfileRepo(db *gorm.DB, baseLog *logger.Logger) CommunityProfileRepo {
	return community.NewCommunityProfileRepo(db, baseLog)
}

func NewConnectionRequestRepo(db *gorm.DB, baseLog *logger.Logger) ConnectionRequestRepo {
	return community.NewConnectionRequestRepo(db, baseLog)
}

func NewConnectionRepo(db *gorm.DB, baseLog *logger.Logger) ConnectionRepo {
	return community.NewConnectionRepo(db, baseLog)
}

func NewJournalEntryRepo(db *gorm.DB, baseLog *logger.Logger) JournalEntryRepo {
	return journal.NewJournalEntryRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
