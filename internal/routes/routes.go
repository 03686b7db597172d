package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/config"
	"github.com/oakghana/20feb26qrcode-sub000/internal/devicetrust"
	"github.com/oakghana/20feb26qrcode-sub000/internal/email"
	"github.com/oakghana/20feb26qrcode-sub000/internal/engine"
	"github.com/oakghana/20feb26qrcode-sub000/internal/handlers"
	"github.com/oakghana/20feb26qrcode-sub000/internal/leave"
	"github.com/oakghana/20feb26qrcode-sub000/internal/middleware"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/notify"
	"github.com/oakghana/20feb26qrcode-sub000/internal/offpremises"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) {
	router.Use(corsMiddleware(cfg.AllowedOriginsRaw))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "staff-attendance-backend"})
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auditLogger := audit.NewLogger(db)
	radiusPolicy := policy.NewRadiusPolicy(db, time.Duration(cfg.RadiusCacheSecs)*time.Second)
	schedulePolicy := policy.SchedulePolicy{
		WindowOpen:               cfg.WindowOpen,
		WindowClose:              cfg.WindowClose,
		LatenessCutoff:           cfg.LatenessCutoff,
		DefaultCheckOutThreshold: cfg.CheckOutDefault,
		CategoryCheckOutThresholds: map[string]string{
			models.LocationCategoryOperationalSite: "16:00",
		},
	}
	trust := devicetrust.New(db, time.Duration(cfg.DeviceTrustHours)*time.Hour)
	sessionEngine := engine.New(db, radiusPolicy, schedulePolicy, trust, leave.NewGate(db), auditLogger)

	var notifier notify.Notifier = notify.Noop{}
	smtpCfg := email.Config{
		Host:     cfg.SmtpHost,
		Port:     cfg.SmtpPort,
		Username: cfg.SmtpUser,
		Password: cfg.SmtpPass,
		From:     cfg.SmtpFrom,
	}
	if smtpCfg.Configured() {
		notifier = notify.NewEmailNotifier(db, smtpCfg)
	}
	workflow := offpremises.New(db, sessionEngine, notifier, auditLogger)

	authHandler := handlers.NewAuthHandler(db, cfg)
	usersHandler := handlers.NewUsersHandler(db, auditLogger)
	locationHandler := handlers.NewLocationHandler(db, auditLogger)
	attendanceHandler := handlers.NewAttendanceHandler(db, sessionEngine)
	offPremisesHandler := handlers.NewOffPremisesHandler(db, workflow)
	leaveHandler := handlers.NewLeaveHandler(db, auditLogger)
	settingsHandler := handlers.NewSettingsHandler(db, radiusPolicy, auditLogger)
	violationsHandler := handlers.NewViolationsHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)

	adminRoles := []string{models.RoleDepartmentHead, models.RoleRegionalAdmin, models.RoleGlobalAdmin}

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/logout", authHandler.Logout)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(cfg.JwtSecret))
	{
		protected.GET("/me", authHandler.Me)
		protected.PUT("/me/password", authHandler.ChangePassword)
		protected.GET("/dashboard", middleware.RequireAnyRole(adminRoles...), dashboardHandler.Get)

		protected.GET("/users", middleware.RequireAnyRole(adminRoles...), usersHandler.List)
		protected.POST("/users", middleware.RequireRole(models.RoleGlobalAdmin), usersHandler.Create)
		protected.PUT("/users/:id", middleware.RequireRole(models.RoleGlobalAdmin), usersHandler.Update)

		protected.GET("/locations", locationHandler.List)
		protected.POST("/locations", middleware.RequireRole(models.RoleGlobalAdmin), locationHandler.Create)
		protected.PUT("/locations/:id", middleware.RequireRole(models.RoleGlobalAdmin), locationHandler.Update)
		protected.POST("/locations/:id/rotate-qr", middleware.RequireRole(models.RoleGlobalAdmin), locationHandler.RotateQRSecret)

		protected.GET("/attendance", attendanceHandler.List)
		protected.GET("/attendance/today", attendanceHandler.Today)
		protected.POST("/attendance/checkin", attendanceHandler.CheckIn)
		protected.POST("/attendance/checkout", attendanceHandler.CheckOut)

		protected.GET("/off-premises", offPremisesHandler.List)
		protected.POST("/off-premises", offPremisesHandler.Submit)
		protected.PATCH("/off-premises/:id", middleware.RequireAnyRole(adminRoles...), offPremisesHandler.Decide)

		protected.GET("/leave/requests", leaveHandler.List)
		protected.POST("/leave/requests", leaveHandler.Create)
		protected.PATCH("/leave/requests/:id/approve", middleware.RequireAnyRole(adminRoles...), leaveHandler.Approve)
		protected.PATCH("/leave/requests/:id/reject", middleware.RequireAnyRole(adminRoles...), leaveHandler.Reject)

		protected.GET("/settings/device-radius", middleware.RequireAnyRole(adminRoles...), settingsHandler.GetDeviceRadius)
		protected.PUT("/settings/device-radius", middleware.RequireRole(models.RoleGlobalAdmin), settingsHandler.UpdateDeviceRadius)

		protected.GET("/security/violations", middleware.RequireAnyRole(adminRoles...), violationsHandler.List)
	}
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	allowAll := len(origins) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowedOrigin := range origins {
				if origin == allowedOrigin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
