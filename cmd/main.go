package main

import (
	"context"
	"log"
	"time"

	"quizhub/internal/config"
	"quizhub/internal/db"
	"quizhub/internal/event"
	"quizhub/internal/handlers"
	"quizhub/internal/mailer"
	"quizhub/internal/middleware"
	"quizhub/internal/repository"
	"quizhub/internal/service"
	"quizhub/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.New()

	db.InitMongo(cfg.MongoURI)
	defer db.DisconnectMongo()
	database := db.Client.Database(cfg.MongoDatabase)

	redisClient := db.InitRedis(cfg.RedisAddr, cfg.RedisPassword)

	var publisher *event.EventPublisher
	if cfg.RabbitURI != "" && cfg.RabbitExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	var images *storage.ImageStore
	if cfg.MinioEndpoint != "" {
		var err error
		images, err = storage.NewImageStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize image store: %v", err)
		}
	} else {
		log.Println("MinIO not configured, quiz images fall back to the default")
	}

	emailService := mailer.NewEmailService(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})

	jwtService := service.NewJWTService(cfg.MustJWTSecret(), cfg.JWTExpiryHours)

	userRepo := repository.NewUserRepository(database)
	quizRepo := repository.NewQuizRepository(database)
	resultRepo := repository.NewResultRepository(database)

	if err := userRepo.InitializeIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}

	userService := service.NewUserService(userRepo, emailService, jwtService, redisClient, publisher)
	quizService := service.NewQuizService(quizRepo, resultRepo, userRepo, publisher)

	authHandler := handlers.NewAuthHandler(userService)
	quizHandler := handlers.NewQuizHandler(quizService, images)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.RequireAuth(jwtService)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-otp", authHandler.ResendOtp)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.GET("/profile", requireAuth, authHandler.GetProfile)
	}

	quiz := r.Group("/api/quiz")
	{
		quiz.POST("", requireAuth, quizHandler.CreateQuiz)
		quiz.GET("", quizHandler.ListQuizzes)
		quiz.POST("/submit", requireAuth, quizHandler.SubmitQuiz)
		quiz.GET("/:id", quizHandler.GetQuiz)
		quiz.DELETE("/:id", requireAuth, quizHandler.DeleteQuiz)
		quiz.GET("/:id/leaderboard", quizHandler.GetLeaderboard)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
