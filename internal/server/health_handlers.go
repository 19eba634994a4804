package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Test handles GET /test
func (s *Server) Test(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Backend OK"})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: an
// unconfigured cache is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.runtime.PingDatastore(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.runtime.Redis != nil {
		redisStatus = "healthy"
		if err := s.runtime.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	storageStatus := "healthy"
	if err := s.runtime.Storage.Ping(ctx); err != nil {
		storageStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" || storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		},
		"time": time.Now(),
	})
}
