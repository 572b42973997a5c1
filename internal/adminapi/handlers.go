package adminapi

import (
	"errors"
	"net/http"

	"github.com/keshon/connect-router/internal/command"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type commandView struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Usage       string   `json:"usage"`
	Description string   `json:"description"`
	Level       string   `json:"level"`
}

func (s *server) commands(c *gin.Context) {
	out := []commandView{}
	for _, cmd := range s.table.Commands() {
		aliases := cmd.Aliases()
		if aliases == nil {
			aliases = []string{}
		}
		out = append(out, commandView{
			Name:        cmd.Name(),
			Aliases:     aliases,
			Usage:       command.FormatUsage(cmd),
			Description: cmd.Description(),
			Level:       cmd.Level().String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) getPolicy(c *gin.Context) {
	rec, err := s.policies.GetOrCreate(c, c.Param("guild"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type patchRequest struct {
	policy.Patch
	// ChannelID is the channel an ignore_channel toggle refers to.
	ChannelID string `json:"channel_id"`
}

func (s *server) patchPolicy(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if req.Patch.IgnoreChannel != nil && req.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "channel_id is required with ignore_channel"})
		return
	}
	if req.Patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"err": "nothing to change"})
		return
	}

	rec, err := s.policies.Update(c, c.Param("guild"), req.ChannelID, req.Patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("Policy updated over admin API",
		zap.String("guild", c.Param("guild")),
		zap.Uint64("bucket", rec.ID),
	)
	c.JSON(http.StatusOK, rec)
}

func (s *server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrInvalidID), errors.Is(err, policy.ErrInvalidPatch):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	case errors.Is(err, policy.ErrStoreUnavailable):
		s.log.Error("Policy store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "policy store unavailable"})
	default:
		s.log.Error("Admin request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
