package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/smallbiznis/orghub/internal/config"
	"github.com/smallbiznis/orghub/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/orghub/internal/http/middleware"
	"github.com/smallbiznis/orghub/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, orgHandler *handler.OrgHandler, healthHandler *handler.HealthHandler, authMiddleware *httpmiddleware.Auth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", healthHandler.Check)

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api := r.Group("/api", authMiddleware.ValidateJWT)
	{
		api.GET("/users/:id", authHandler.GetUser)

		orgs := api.Group("/organisations")
		{
			orgs.GET("", orgHandler.List)
			orgs.POST("", orgHandler.Create)
			orgs.GET("/:orgId", orgHandler.Get)
			orgs.POST("/:orgId/users", orgHandler.AddMember)
		}
	}

	return r
}
