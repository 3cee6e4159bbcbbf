package app

import (
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/modules/insights"
	"github.com/archisdhar8/religiousAI/internal/platform/config"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Jobs        services.JobService
	Chat        services.ChatService
	Guidance    services.GuidanceService
	Memory      services.MemoryService
	Journal     services.JournalService
	Search      services.SearchService
	Community   services.CommunityService
	Connections services.ConnectionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	tx := aggregates.NewGormTxRunner(db)
	notify := services.NewNotifier(&services.BusEmitter{Bus: clients.Bus, Log: log})

	authService := services.NewAuthService(db, log, reposet.User, cfg.Auth.JWTSecret, cfg.Auth.JWTAudience)
	userService := services.NewUserService(db, log, reposet.User)
	jobService := services.NewJobService(db, log, reposet.JobRun)

	chatService := services.NewChatService(db, log, tx, reposet.User, reposet.ChatThread, reposet.ChatMessage, notify)
	guidanceService := services.NewGuidanceService(
		db, log,
		chatService,
		reposet.ChatMessage,
		reposet.UserMemory,
		jobService,
		services.NewChromaRetriever(clients.LLM, clients.Chroma),
		clients.LLM,
		cfg.Chroma.RetrievalK,
	)
	memoryService := services.NewMemoryService(
		db, log, tx,
		reposet.UserMemory,
		reposet.ChatMessage,
		reposet.JournalEntry,
		insights.Default(),
		notify,
	)
	journalService := services.NewJournalService(db, log, tx, reposet.JournalEntry, reposet.UserMemory, guidanceService, jobService)
	searchService := services.NewSearchService(db, log, reposet.ChatMessage, reposet.JournalEntry)

	communityService := services.NewCommunityService(
		db, log,
		reposet.CommunityProfile,
		reposet.UserMemory,
		reposet.ConnectionRequest,
		reposet.Connection,
		int(cfg.Community.MatchMinScore),
	)
	connectionService := services.NewConnectionService(
		db, log, tx,
		reposet.User,
		reposet.CommunityProfile,
		reposet.ConnectionRequest,
		reposet.Connection,
		notify,
		services.ConnectionOptions{
			DeclinePolicy:   cfg.Community.DeclinePolicy,
			DeclineCooldown: cfg.Community.DeclineCooldown,
		},
	)

	return Services{
		Auth:        authService,
		User:        userService,
		Jobs:        jobService,
		Chat:        chatService,
		Guidance:    guidanceService,
		Memory:      memoryService,
		Journal:     journalService,
		Search:      searchService,
		Community:   communityService,
		Connections: connectionService,
	}
}
