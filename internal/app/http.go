package app

import (
	"gorm.io/gorm"

	apphttp "github.com/archisdhar8/religiousAI/internal/http"
	httpH "github.com/archisdhar8/religiousAI/internal/http/handlers"
	httpMW "github.com/archisdhar8/religiousAI/internal/http/middleware"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/config"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

const serviceName = "religiousai-api"

func wireRouterConfig(db *gorm.DB, log *logger.Logger, cfg *config.Config, svc Services, hub *realtime.SSEHub, metrics *observability.Metrics) apphttp.RouterConfig {
	log.Info("Wiring handlers...")
	rc := apphttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.Server.AllowedOrigins(),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, svc.Auth),

		HealthHandler:    httpH.NewHealthHandler(db, cfg.Server.Version),
		TraditionHandler: httpH.NewTraditionHandler(),
		UserHandler:      httpH.NewUserHandler(svc.User, svc.Memory),
		RealtimeHandler:  httpH.NewRealtimeHandler(log, hub),
		ChatHandler:      httpH.NewChatHandler(svc.Chat, svc.Guidance),
		GuidanceHandler:  httpH.NewGuidanceHandler(svc.Guidance),
		JournalHandler:   httpH.NewJournalHandler(svc.Journal, svc.Search),
		CommunityHandler: httpH.NewCommunityHandler(svc.Community, svc.Connections),
	}
	// a dedicated metrics listener takes over /metrics
	if cfg.Metrics.Addr == "" {
		rc.Metrics = metrics
	}
	return rc
}
