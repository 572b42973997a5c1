// Package adminapi serves a small HTTP API for inspecting the command table
// and editing guild policies out of band.
package adminapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Policies reads and updates guild policies.
type Policies interface {
	GetOrCreate(ctx context.Context, guildID string) (policy.Record, error)
	Update(ctx context.Context, guildID, channelID string, p policy.Patch) (policy.Record, error)
}

// Deps wires the handlers.
type Deps struct {
	Policies Policies
	Table    *command.Table
	// Token, when set, is required as a bearer token on everything but /healthz.
	Token  string
	Logger *zap.Logger
}

type server struct {
	policies Policies
	table    *command.Table
	log      *zap.Logger
}

// New builds the gin engine.
func New(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &server{policies: deps.Policies, table: deps.Table, log: deps.Logger}

	g := gin.New()
	g.Use(requestLogger(deps.Logger), gin.Recovery())
	g.GET("/healthz", s.healthz)

	api := g.Group("/", bearer(deps.Token))
	api.GET("/commands", s.commands)
	api.GET("/policies/:guild", s.getPolicy)
	api.PATCH("/policies/:guild", s.patchPolicy)
	return g
}

// Run serves h on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down admin server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Admin server shutdown", zap.Error(err))
		}
	}()

	log.Info("Admin server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bearer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
