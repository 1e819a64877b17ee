// Package api exposes host statistics over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/DGHeroin/HostStats/logging"
	"github.com/DGHeroin/HostStats/status"
	"github.com/gin-gonic/gin"
)

type Stats interface {
	General(ctx context.Context) (status.GeneralStats, error)
	CPU(ctx context.Context) (status.CPUStats, error)
	Memory(ctx context.Context) (status.MemStats, error)
	Disk(ctx context.Context) (status.DiskStats, error)
	Services(ctx context.Context) status.ServiceStats
}

func NewRouter(stats Stats, logger *logging.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(logger))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/gen/", handle(logger, stats.General))
	r.GET("/cpu/", handle(logger, stats.CPU))
	r.GET("/mem/", handle(logger, stats.Memory))
	r.GET("/disk/", handle(logger, stats.Disk))
	r.GET("/svc/", func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Services(c.Request.Context()))
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func handle[T any](logger *logging.Logger, fn func(context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := fn(c.Request.Context())
		if err != nil {
			logger.Error(err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP())
	}
}
