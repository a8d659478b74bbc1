package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/flowsend/notify-service/internal/api/handlers/notification"
	"github.com/flowsend/notify-service/internal/middlewares"
)

func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api/notifications")
	{
		api.POST("/", handler.Create)
		api.GET("/", handler.GetByUser)
		api.GET("/:id", handler.Get)
	}

	return e
}
