package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/api/handlers"
	"github.com/mehulsen/postmirror/internal/api/middleware"
	job "github.com/mehulsen/postmirror/internal/jobs"
	"github.com/mehulsen/postmirror/internal/queue"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()
	inspector := asynq.NewInspector(redisConn)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewConnectedAccountRepository(db)
	profileRepo := repository.NewNetworkProfileRepository(db)
	postRepo := repository.NewNetworkPostRepository(db)
	syncMetaRepo := repository.NewSyncMetadataRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	styleRepo := repository.NewWritingStyleRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	shareLinkRepo := repository.NewShareLinkRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	// One gate budget for every outbound network resource.
	rateLimiter := service.NewRateLimiter(rdb, 15, 15*time.Minute)
	scheduler := queue.NewScheduler(client, inspector)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	aiClient := service.NewClaudeService(*cfg)
	twitterService := service.NewTwitterService(*cfg, accountRepo)
	linkedinService := service.NewLinkedinService(*cfg, accountRepo)
	extractionService := service.NewExtractionService(aiClient)
	syncService := service.NewSyncService(*cfg, accountRepo, profileRepo, postRepo, syncMetaRepo, extractionService, twitterService, rateLimiter, scheduler)
	suggestionService := service.NewSuggestionService(accountRepo, postRepo, suggestionRepo, syncMetaRepo, topicRepo, styleRepo, aiClient)
	trendingService := service.NewTrendingService(*cfg, topicRepo, postRepo, extractionService, twitterService, rateLimiter, aiClient)
	styleService := service.NewStyleService(accountRepo, postRepo, styleRepo, aiClient)
	accountService := service.NewAccountService(*cfg, accountRepo)
	topicService := service.NewTopicService(topicRepo, accountRepo)
	r2Service := service.NewR2Service(*cfg)
	mediaService := service.NewMediaService(mediaAssetRepo, *r2Service)
	shareService := service.NewShareService(cfg.FrontendURL, shareLinkRepo, suggestionRepo, accountRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Get("/logout", auth.Logout)

	account := handlers.NewAccountHandler(accountService, twitterService, linkedinService, client, inspector, *cfg)
	app.Get("/auth/:platform", account.ConnectAccount)
	app.Get("/auth/:platform/callback", account.CallbackHandler)

	share := handlers.NewShareHandler(shareService)
	app.Get("/s/:slug", share.ResolveLink)
	app.Get("/s/:slug/qr", share.QRCode)

	payment := handlers.NewPaymentHandler(subscriptionService)
	app.Post("/webhook/payment", payment.PaymentWebhook)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	api.Get("/accounts", account.ListAccounts)
	api.Get("/accounts/info", account.GetAccount)
	api.Post("/accounts/settings", account.UpdateSettings)
	api.Post("/accounts/sync", account.TriggerSync)
	api.Post("/accounts/remove", account.DeleteAccount)

	suggestion := handlers.NewSuggestionHandler(suggestionService, accountService, client)
	api.Get("/suggestions", suggestion.ListSuggestions)
	api.Post("/suggestions/generate", suggestion.GenerateSuggestions)
	api.Post("/suggestions/use", suggestion.UseSuggestion)
	api.Post("/suggestions/dismiss", suggestion.DismissSuggestion)

	topic := handlers.NewTopicHandler(topicService, trendingService)
	api.Get("/topics", topic.ListTopics)
	api.Post("/topics/subscribe", topic.Subscribe)
	api.Post("/topics/unsubscribe", topic.Unsubscribe)
	api.Get("/topics/subscribed", topic.ListSubscribed)
	api.Get("/topics/trending", topic.ListTrending)

	style := handlers.NewStyleHandler(styleService, accountService)
	api.Get("/style", style.GetStyle)
	api.Post("/style/analyze", style.AnalyzeStyle)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Get("/media", media.ListMedia)

	api.Post("/share/new", share.CreateLink)

	api.Get("/subscription/status", payment.GetStatus)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(accountRepo, twitterService)
	syncSchedulerJob := job.NewSyncSchedulerJob(accountRepo, client, inspector)
	maintenanceJob := job.NewMaintenanceJob(suggestionRepo, trendingService)

	// queue
	queueW := queue.NewQueue(syncService, suggestionService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 00h30m00s", syncSchedulerJob.ScheduleSyncs)
	c.AddFunc("@every 01h00m00s", maintenanceJob.SweepSuggestions)
	c.AddFunc("@every 06h00m00s", maintenanceJob.RefreshTrending)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSyncAccount, queueW.HandleSyncAccountTask)
		mux.HandleFunc(queue.TaskTypeGenerateSuggestions, queueW.HandleGenerateSuggestionsTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
