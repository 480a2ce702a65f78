package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/open-builders/contestlet/internal/approvalqueue"
	"github.com/open-builders/contestlet/internal/contestsvc"
	"github.com/open-builders/contestlet/internal/entrysvc"
	"github.com/open-builders/contestlet/internal/otp"
	"github.com/open-builders/contestlet/internal/session"
	"github.com/open-builders/contestlet/internal/store"
)

// Deps bundles every service the router needs to wire its handlers,
// mirroring the teacher's NewFiberApp(pg, rdb, cfg) parameter shape.
type Deps struct {
	DB             *sql.DB
	Redis          *redis.Client
	Store          store.Store
	Sessions       *session.Service
	Otp            *otp.Service
	Contests       *contestsvc.Service
	Entries        *entrysvc.Service
	ApprovalQueue  *approvalqueue.Queue
	CORSOrigins    string
	MaxPageSize    int
	DefaultPageSize int
	SupportedTimezones []string
	Logger         zerolog.Logger
}

// NewRouter builds the gin engine with every route group mounted.
func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.CORSOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := gin.H{}
		if err := d.DB.PingContext(ctx); err != nil {
			ready = false
			deps["postgres"] = gin.H{"ok": false, "error": err.Error()}
		} else {
			deps["postgres"] = gin.H{"ok": true}
		}
		if d.Redis != nil {
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				ready = false
				deps["redis"] = gin.H{"ok": false, "error": err.Error()}
			} else {
				deps["redis"] = gin.H{"ok": true}
			}
		}
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "deps": deps})
	})

	h := &handlers{d: d}

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		auth.POST("/otp/request", h.requestOtp)
		auth.POST("/otp/verify", h.verifyOtp)

		contests := api.Group("/contests")
		contests.GET("", OptionalSession(d.Sessions), h.listPublicContests)
		contests.GET("/:id", OptionalSession(d.Sessions), h.getContest)
		contests.POST("", RequireSession(d.Sessions), h.createDraft)
		contests.PUT("/:id", RequireSession(d.Sessions), h.updateDraft)
		contests.POST("/:id/submit", RequireSession(d.Sessions), h.submitContest)
		contests.POST("/:id/withdraw", RequireSession(d.Sessions), h.withdrawContest)
		contests.DELETE("/:id", RequireSession(d.Sessions), h.deleteContest)
		contests.POST("/:id/entries", RequireSession(d.Sessions), h.enterContest)

		sponsor := api.Group("/sponsor/workflow", RequireSession(d.Sessions))
		sponsor.GET("/contests", h.listMyContests)

		admin := api.Group("/admin", RequireSession(d.Sessions))
		admin.POST("/approval/contests/:id/approve", h.approveContest)
		admin.POST("/approval/contests/:id/reject", h.rejectContest)
		admin.POST("/approval/bulk", h.bulkApprove)
		admin.GET("/approval/queue", h.approvalQueueList)
		admin.GET("/approval/stats", h.approvalQueueStats)
		admin.POST("/contests/:id/entries", h.manualEntry)
		admin.POST("/contests/:id/winners", h.selectWinners)
		admin.POST("/contests/:id/winners/:position/reselect", h.reselectWinner)
		admin.POST("/contests/:id/notify-winners", h.notifyWinners)

		users := api.Group("/users", RequireSession(d.Sessions))
		users.GET("/me", h.getMe)
		users.PATCH("/me", h.updateMe)

		api.GET("/timezone/supported", h.supportedTimezones)
	}

	return r
}
