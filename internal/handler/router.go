package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memostream/memostream-api/internal/middleware"
	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/internal/repository"
	"github.com/memostream/memostream-api/internal/service"
)

// Dependencies bundles everything route registration needs.
type Dependencies struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Fields     *FieldHandler
	Memos      *MemoHandler
	Stats      *StatsHandler
	Paraphrase *ParaphraseHandler
	Metrics    *MetricsHandler

	AuthService *service.AuthService
	UserRepo    *repository.UserRepository
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, deps Dependencies) {
	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Health)
	r.GET("/metrics", deps.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.GET("/me", middleware.JWT(deps.AuthService), deps.Auth.Me)
		auth.POST("/register-admin",
			middleware.JWT(deps.AuthService),
			middleware.RequireRoles(models.RoleAdmin),
			deps.Auth.RegisterAdmin,
		)
	}

	users := api.Group("/users", middleware.JWT(deps.AuthService))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), deps.Users.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleStaff), "SELF"), deps.Users.Get)
		users.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), deps.Users.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), deps.Users.Delete)
	}

	fields := api.Group("/fields", middleware.JWT(deps.AuthService))
	{
		fields.GET("", deps.Fields.List)
		fields.POST("",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(deps.UserRepo, models.AuditActionFieldCreate, "memo_fields"),
			deps.Fields.Create,
		)
	}

	memos := api.Group("/memos", middleware.JWT(deps.AuthService))
	{
		memos.POST("", deps.Memos.Create)
		memos.GET("", deps.Memos.List)
		memos.PUT("/status", deps.Memos.UpdateStatus)
		memos.PUT("/:id/response", deps.Memos.Respond)
		memos.PUT("/:id/archive", deps.Memos.Archive)
		memos.POST("/:id/forward", deps.Memos.Forward)
		memos.GET("/:id/export",
			middleware.Audit(deps.UserRepo, models.AuditActionMemoExport, "memos"),
			deps.Memos.Export,
		)
	}

	api.GET("/stats", middleware.JWT(deps.AuthService), deps.Stats.UserStats)
	api.POST("/paraphrase", middleware.JWT(deps.AuthService), deps.Paraphrase.Paraphrase)
}
