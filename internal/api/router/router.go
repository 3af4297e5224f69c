package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/api/handler"
	"campus-portal/backend/internal/api/middleware"
	"campus-portal/backend/pkg/jwt"
	"campus-portal/backend/pkg/redis"
)

// maxFilesPerRequest sizes the body limit of multipart submissions.
const maxFilesPerRequest = 12

// Setup builds the gin engine. rdb may be nil; revocation checks and rate limits are then
// skipped.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, roles middleware.RoleSource, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	// keep the interface nil when redis is off
	var blacklist middleware.Blacklist
	if rdb != nil {
		blacklist = rdb
	}

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit((cfg.Storage.MaxUploadMB*maxFilesPerRequest + 1) << 20))

	r.GET("/health", h.Health.Health)
	r.GET("/storage/:bucket/*name", h.Storage.Serve)

	authLimit := middleware.RateLimit(rdb, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, logger)
	gate := middleware.RequireAccess

	v1 := r.Group("/api/v1")

	// public routes: anonymous is fine, a signed-in caller sees staff fields
	public := v1.Group("")
	public.Use(middleware.OptionalAuth(jwtMgr, blacklist, logger), middleware.ResolveRole(roles))

	// everything else needs a valid access token
	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(jwtMgr, blacklist, logger), middleware.ResolveRole(roles))

	// ── auth ──
	{
		public.POST("/auth/sign-in", authLimit, h.Auth.SignIn)
		public.POST("/auth/sign-up", authLimit, h.Auth.SignUp)
		public.GET("/auth/verify", h.Auth.VerifyEmail)
		public.POST("/auth/refresh", authLimit, h.Auth.Refresh)
		public.POST("/auth/sign-out", h.Auth.SignOut)

		authed.GET("/auth/me", h.Auth.Me)
		authed.GET("/auth/role", h.Auth.Role)
		authed.POST("/auth/role/refresh", h.Auth.RefreshRole)
	}

	// ── users ──
	users := authed.Group("/users", gate(access.AdminOnly))
	{
		users.GET("", h.User.ListUsers)
		users.GET("/:id", h.User.GetUser)
		users.PUT("/:id/role", h.User.AssignRole)
		users.DELETE("/:id", h.User.DeleteUser)
	}

	// ── departments and courses ──
	{
		public.GET("/departments", h.Catalog.ListDepartments)
		public.GET("/departments/:id", h.Catalog.GetDepartment)
		authed.POST("/departments", gate(access.AdminOnly), h.Catalog.CreateDepartment)
		authed.PUT("/departments/:id", gate(access.AdminOnly), h.Catalog.UpdateDepartment)
		authed.DELETE("/departments/:id", gate(access.AdminOnly), h.Catalog.DeleteDepartment)

		public.GET("/courses", h.Catalog.ListCourses)
		public.GET("/courses/:id", h.Catalog.GetCourse)
		authed.POST("/courses", gate(access.AdminOnly), h.Catalog.CreateCourse)
		authed.PUT("/courses/:id", gate(access.AdminOnly), h.Catalog.UpdateCourse)
		authed.DELETE("/courses/:id", gate(access.AdminOnly), h.Catalog.DeleteCourse)
	}

	// ── events ──
	{
		public.GET("/events", h.Event.ListEvents)
		authed.GET("/events/deleted", gate(access.AdminOnly), h.Event.ListDeleted)
		public.GET("/events/:id", h.Event.GetEvent)
		authed.POST("/events", gate(access.Staff), h.Event.CreateEvent)
		authed.PUT("/events/:id", gate(access.Staff), h.Event.UpdateEvent)
		authed.POST("/events/:id/media", gate(access.Staff), h.Event.UploadMedia)
		authed.DELETE("/events/:id", gate(access.Staff), h.Event.DeleteEvent)
		authed.POST("/events/:id/restore", gate(access.Staff), h.Event.RestoreEvent)
		authed.DELETE("/events/:id/purge", gate(access.AdminOnly), h.Event.PurgeEvent)
	}

	// ── research ──
	{
		public.GET("/research", h.Research.List)
		authed.GET("/research/mine", gate(access.Authenticated), h.Research.Mine)
		public.GET("/research/:id", h.Research.Get)
		authed.POST("/research", gate(access.Authenticated), h.Research.Submit)
		authed.PUT("/research/:id/review", gate(access.Staff), h.Research.Review)
		authed.DELETE("/research/:id", gate(access.Staff), h.Research.Delete)
		authed.POST("/research/:id/restore", gate(access.Staff), h.Research.Restore)
		authed.DELETE("/research/:id/purge", gate(access.AdminOnly), h.Research.Purge)
	}

	// ── syllabus reviews ──
	{
		authed.POST("/syllabus-reviews", gate(access.Authenticated), h.Academics.SubmitReview)
		authed.GET("/syllabus-reviews", gate(access.Staff), h.Academics.ListReviews)
		authed.GET("/syllabus-reviews/summary", gate(access.Staff), h.Academics.ReviewSummary)
		authed.GET("/syllabus-reviews/export", gate(access.Staff), h.Academics.ExportReviews)
	}

	// ── attendance ──
	{
		authed.POST("/attendance", gate(access.Staff), h.Academics.RecordAttendance)
		authed.GET("/attendance", gate(access.Authenticated), h.Academics.ListAttendance)
		authed.GET("/attendance/summary", gate(access.Authenticated), h.Academics.AttendanceSummary)
		authed.GET("/attendance/export", gate(access.Staff), h.Academics.ExportAttendance)
	}

	// ── timetables ──
	{
		authed.POST("/timetables/import", gate(access.Staff), h.Academics.ImportTimetable)
		public.GET("/timetables", h.Academics.ListTimetable)
	}

	return r
}
