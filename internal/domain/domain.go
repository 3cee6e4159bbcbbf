package domain

import (
	"github.com/archisdhar8/religiousAI/internal/domain/chat"
	"github.com/archisdhar8/religiousAI/internal/domain/community"
	"github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/domain/journal"
	"github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/domain/user"
)

type (
	User = user.User

	ChatThread  = chat.ChatThread
	ChatMessage = chat.ChatMessage
	Source      = chat.Source

	UserMemory    = memory.UserMemory
	TraitSet      = memory.TraitSet
	TraitCategory = memory.TraitCategory
	Insights      = memory.Insights
	Journey       = memory.Journey
	Milestone     = memory.Milestone

	CommunityProfile  = community.CommunityProfile
	ConnectionRequest = community.ConnectionRequest
	Connection        = community.Connection

	JournalEntry = journal.JournalEntry

	JobRun = jobs.JobRun
)

const (
	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant

	RequestPending  = community.RequestPending
	RequestAccepted = community.RequestAccepted
	RequestDeclined = community.RequestDeclined

	JobStatusQueued    = jobs.StatusQueued
	JobStatusRunning   = jobs.StatusRunning
	JobStatusSucceeded = jobs.StatusSucceeded
	JobStatusFailed    = jobs.StatusFailed
)

// AllModels is the migration set, in dependency order.
func AllModels() []any {
	return []any{
		&User{},
		&ChatThread{},
		&ChatMessage{},
		&UserMemory{},
		&CommunityProfile{},
		&ConnectionRequest{},
		&Connection{},
		&JournalEntry{},
		&JobRun{},
	}
}
