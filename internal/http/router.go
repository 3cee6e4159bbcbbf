package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/archisdhar8/religiousAI/internal/http/handlers"
	httpMW "github.com/archisdhar8/religiousAI/internal/http/middleware"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Metrics mounts GET /metrics on the API router when set.
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	TraditionHandler *httpH.TraditionHandler
	UserHandler      *httpH.UserHandler
	RealtimeHandler  *httpH.RealtimeHandler
	ChatHandler      *httpH.ChatHandler
	GuidanceHandler  *httpH.GuidanceHandler
	JournalHandler   *httpH.JournalHandler
	CommunityHandler *httpH.CommunityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(observability.Current()))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.TraditionHandler != nil {
			api.GET("/traditions", cfg.TraditionHandler.List)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me/preferences", cfg.UserHandler.PatchPreferences)
			protected.GET("/me/memory", cfg.UserHandler.GetMemory)
			protected.GET("/greeting", cfg.UserHandler.Greeting)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/events", cfg.RealtimeHandler.Events)
		}

		// Chat
		if cfg.ChatHandler != nil {
			protected.GET("/chat/threads", cfg.ChatHandler.ListThreads)
			protected.POST("/chat/threads", cfg.ChatHandler.CreateThread)
			protected.GET("/chat/threads/current", cfg.ChatHandler.CurrentThread)
			protected.GET("/chat/threads/:id", cfg.ChatHandler.GetThread)
			protected.PATCH("/chat/threads/:id", cfg.ChatHandler.RenameThread)
			protected.DELETE("/chat/threads/:id", cfg.ChatHandler.DeleteThread)
			protected.PUT("/chat/threads/:id/current", cfg.ChatHandler.SetCurrentThread)
			protected.POST("/chat/threads/:id/messages", cfg.ChatHandler.SendMessage)
		}

		// Guidance
		if cfg.GuidanceHandler != nil {
			protected.GET("/daily-wisdom", cfg.GuidanceHandler.DailyWisdom)
			protected.POST("/compare", cfg.GuidanceHandler.Compare)
		}

		// Journal + search
		if cfg.JournalHandler != nil {
			protected.GET("/journal", cfg.JournalHandler.List)
			protected.POST("/journal", cfg.JournalHandler.Create)
			protected.GET("/search", cfg.JournalHandler.Search)
		}

		// Community
		if cfg.CommunityHandler != nil {
			protected.GET("/community/profile", cfg.CommunityHandler.GetProfile)
			protected.PUT("/community/profile", cfg.CommunityHandler.PutProfile)
			protected.GET("/community/matches", cfg.CommunityHandler.Matches)
			protected.GET("/community/connections", cfg.CommunityHandler.ListConnections)
			protected.DELETE("/community/connections/:userId", cfg.CommunityHandler.RemoveConnection)
			protected.GET("/community/requests", cfg.CommunityHandler.ListRequests)
			protected.POST("/community/requests", cfg.CommunityHandler.SendRequest)
			protected.POST("/community/requests/:id/respond", cfg.CommunityHandler.Respond)
		}
	}

	return r
}
