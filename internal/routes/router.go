package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todo-planner/internal/controller"
	"todo-planner/internal/middleware"
	"todo-planner/internal/service"
)

// Deps holds what the router hands to controllers.
type Deps struct {
	Auth        *service.AuthService
	ToDos       *service.ToDoService
	Categories  *service.CategoryService
	Health      *controller.HealthController
	CORSOrigins []string
}

func Router(d Deps) *gin.Engine {
	controller.RegisterValidation()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	config := cors.DefaultConfig()
	if len(d.CORSOrigins) > 0 {
		config.AllowOrigins = d.CORSOrigins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(config))

	// Health for load balancers and K8s probes
	router.GET("/health", d.Health.Health)
	router.GET("/ready", d.Health.Ready)

	authHandler := controller.NewAuthController(d.Auth)
	todoHandler := controller.NewToDoController(d.ToDos)
	categoryHandler := controller.NewCategoryController(d.Categories)

	router.POST("/api/register", authHandler.Register)
	router.POST("/api/login", authHandler.Login)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Auth))
	{
		api.GET("/me", authHandler.Me)
		api.PUT("/me", authHandler.UpdateMe)

		api.GET("/to-dos", todoHandler.Index)
		api.GET("/to-dos/create", todoHandler.Create)
		api.POST("/to-dos", todoHandler.Store)
		api.GET("/to-dos/:id", todoHandler.Edit)
		api.PUT("/to-dos/:id", todoHandler.Update)
		api.PUT("/to-dos/:id/toggle", todoHandler.Toggle)
		api.DELETE("/to-dos/:id", todoHandler.Destroy)

		api.GET("/categories", categoryHandler.Index)
		api.POST("/categories", categoryHandler.Store)
		api.GET("/categories/:id", categoryHandler.Edit)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Destroy)
	}

	return router
}
