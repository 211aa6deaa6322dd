package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/klms/params"
)

func GetHealth(ctx *fiber.Ctx) error {
	return ctx.JSON(healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Service:   params.ServiceName,
	})
}
