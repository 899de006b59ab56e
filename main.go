package main

import (
	"log"
	"secret-santa-backend/config"
	"secret-santa-backend/database"
	"secret-santa-backend/handlers"
	"secret-santa-backend/middleware"
	"secret-santa-backend/services"
	"secret-santa-backend/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Build the at-rest codec and the approval orchestrator
	codec, err := utils.NewCodec(config.AppConfig.CryptoKey, config.AppConfig.CryptoIV)
	if err != nil {
		log.Fatal("Failed to build secret codec:", err)
	}
	handlers.Init(services.NewOrchestrator(database.DB, codec, services.GetNotificationService()))

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)

		// Groups
		api.POST("/groups", handlers.CreateGroup)
		api.GET("/groups", handlers.GetGroups)
		api.GET("/groups/:id", handlers.GetGroup)
		api.POST("/groups/join", handlers.JoinGroup)
		api.POST("/groups/:id/invite", handlers.InviteToGroupHandler)

		// Secret Santa workflow
		api.POST("/groups/:id/shuffle", handlers.Shuffle)
		api.GET("/groups/:id/status", handlers.GroupStatus)
		api.POST("/groups/:id/wish", handlers.SubmitWish)
		api.POST("/groups/:id/wish/:uid/approve", handlers.ApproveWish)
		api.POST("/groups/:id/address", handlers.SubmitAddress)
		api.POST("/groups/:id/address/:uid/approve", handlers.ApproveAddress)
		api.GET("/groups/:id/assignment", handlers.GetAssignment)
		api.POST("/groups/:id/assignment/ack", handlers.Acknowledge)

		// Activity
		api.GET("/groups/:id/activity", handlers.GetGroupActivity)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)

	addr := "0.0.0.0:" + port
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
