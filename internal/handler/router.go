package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/middleware"
	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/service"
)

// Handlers groups every route handler. Board and Attachments may be nil when
// the feature is disabled.
type Handlers struct {
	Users       *UserHandler
	Teams       *TeamHandler
	Equipment   *EquipmentHandler
	Requests    *MaintenanceRequestHandler
	Reports     *ReportHandler
	Attachments *AttachmentHandler
	Board       *BoardHandler
	Ops         *MetricsHandler
}

// RouteOptions configures RegisterRoutes. A nil Auth leaves the API open.
type RouteOptions struct {
	APIPrefix string
	Auth      *service.AuthService
}

// RegisterRoutes mounts the probes at the root and the API under the prefix.
func RegisterRoutes(r *gin.Engine, h Handlers, opts RouteOptions) {
	r.GET("/health", h.Ops.Health)
	r.GET("/ready", h.Ops.Ready)
	r.GET("/metrics", h.Ops.Prometheus)

	// signed tokens and websocket upgrades cannot carry a bearer header
	public := r.Group(opts.APIPrefix)
	if h.Attachments != nil {
		public.GET("/files/download", h.Attachments.Download)
	}
	if h.Board != nil {
		public.GET("/ws/board", h.Board.Stream)
	}

	api := r.Group(opts.APIPrefix)
	guard := func(models.Permission) gin.HandlerFunc {
		return func(c *gin.Context) { c.Next() }
	}
	if opts.Auth != nil {
		api.Use(middleware.JWT(opts.Auth))
		guard = middleware.RequirePermission
	}

	users := api.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/role/:role", h.Users.ByRole)
	users.GET("/stats/roles", h.Users.RoleStats)
	users.GET("/:id", h.Users.Get)
	users.GET("/:id/permissions", h.Users.Permissions)
	users.POST("", guard(models.PermManageUsers), h.Users.Create)
	users.PUT("/:id", guard(models.PermManageUsers), h.Users.Update)
	users.DELETE("/:id", guard(models.PermManageUsers), h.Users.Delete)

	teams := api.Group("/teams")
	teams.GET("", h.Teams.List)
	teams.GET("/:id", h.Teams.Get)
	teams.POST("", guard(models.PermManageTeams), h.Teams.Create)
	teams.PUT("/:id", guard(models.PermManageTeams), h.Teams.Update)
	teams.DELETE("/:id", guard(models.PermManageTeams), h.Teams.Delete)
	teams.POST("/:id/members", guard(models.PermManageTeams), h.Teams.AddMember)
	teams.DELETE("/:id/members", guard(models.PermManageTeams), h.Teams.RemoveMember)
	teams.DELETE("/:id/members/:userId", guard(models.PermManageTeams), h.Teams.RemoveMember)

	equipment := api.Group("/equipment")
	equipment.GET("", h.Equipment.List)
	equipment.GET("/:id", h.Equipment.Get)
	equipment.GET("/:id/maintenance", h.Equipment.Maintenance)
	equipment.GET("/:id/maintenance-count", h.Equipment.MaintenanceCount)
	equipment.POST("", guard(models.PermCreateEquipment), h.Equipment.Create)
	equipment.PUT("/:id", guard(models.PermEditEquipment), h.Equipment.Update)
	equipment.PATCH("/:id/scrap", guard(models.PermEditEquipment), h.Equipment.Scrap)
	equipment.DELETE("/:id", guard(models.PermDeleteEquipment), h.Equipment.Delete)

	requests := api.Group("/requests")
	requests.GET("", h.Requests.List)
	requests.GET("/type/preventive", h.Requests.Preventive)
	requests.GET("/dates/range", h.Requests.DateRange)
	requests.GET("/:id", h.Requests.Get)
	requests.POST("", guard(models.PermCreateRequest), h.Requests.Create)
	requests.PUT("/:id", guard(models.PermCreateRequest), h.Requests.Update)
	requests.PATCH("/:id/status", guard(models.PermCreateRequest), h.Requests.ChangeStatus)
	requests.PATCH("/:id/assign", guard(models.PermAssignRequest), h.Requests.Assign)
	requests.DELETE("/:id", guard(models.PermAssignRequest), h.Requests.Delete)
	if h.Attachments != nil {
		requests.POST("/:id/attachments", guard(models.PermCreateRequest), h.Attachments.Upload)
		requests.GET("/:id/attachments/:index/link", h.Attachments.Link)
	}
	api.GET("/requests-kanban/all", h.Requests.Kanban)

	reports := api.Group("/reports", guard(models.PermViewReports))
	reports.GET("/by-team", h.Reports.ByTeam)
	reports.GET("/by-category", h.Reports.ByCategory)
}
