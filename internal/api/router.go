package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/flight-delay-backend-go/internal/handler"
	"github.com/jengzang/flight-delay-backend-go/internal/middleware"
	"github.com/jengzang/flight-delay-backend-go/internal/service"
)

// Dependencies groups what the router wires into handlers
type Dependencies struct {
	Service *service.DelayService
	Limiter *middleware.RateLimiter // nil disables rate limiting
	Logger  *logrus.Logger
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	predictHandler := handler.NewPredictHandler(deps.Service)
	modelHandler := handler.NewModelHandler(deps.Service)

	// 健康检查
	r.GET("/health", predictHandler.Health)

	predict := []gin.HandlerFunc{predictHandler.Predict}
	if deps.Limiter != nil {
		predict = append([]gin.HandlerFunc{middleware.RateLimit(deps.Limiter)}, predict...)
	}
	r.POST("/predict", predict...)

	api := r.Group("/api/v1")
	{
		model := api.Group("/model")
		{
			model.GET("", modelHandler.GetStatus)
			model.POST("/train", modelHandler.Train)
			model.GET("/runs", modelHandler.ListRuns)
			model.GET("/runs/:id", modelHandler.GetRun)
		}

		flights := api.Group("/flights")
		{
			flights.POST("/import", modelHandler.ImportFlights)
			flights.GET("/summary", modelHandler.GetSummary)
		}
	}

	return r
}
