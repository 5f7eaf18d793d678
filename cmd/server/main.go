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
	"github.com/robfig/cron"
	config "postpilot/configs"
	"postpilot/internal/api/handlers"
	"postpilot/internal/api/middleware"
	job "postpilot/internal/jobs"
	"postpilot/internal/notify"
	"postpilot/internal/platform"
	"postpilot/internal/queue"
	"postpilot/internal/repository"
	"postpilot/internal/service"
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

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
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

	postRepo := repository.NewPostRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	deletionQueueRepo := repository.NewDeletionQueueRepository(db)
	attemptRepo := repository.NewPostingAttemptRepository(db)

	platformClient := platform.NewClient(*cfg)
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL)

	publishService := service.NewPublishService(*cfg, postRepo, accountRepo, attemptRepo, platformClient, notifier)
	postService := service.NewPostService(postRepo, accountRepo, attemptRepo)
	deletionService := service.NewDeletionService(deletionQueueRepo, accountRepo)
	accountService := service.NewAccountService(*cfg, accountRepo, platformClient)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	account := handlers.NewAccountHandler(*cfg, accountService)
	app.Post("/platform/deauthorize", account.DeauthorizeCallback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/link", account.Link)
	api.Get("/auth/link/callback", account.LinkCallback)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/settings", account.UpdateSettings)

	post := handlers.NewPostHandler(postService, publishService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/attempts", post.ListAttempts)
	api.Post("/posts/publish", post.PublishNow)
	api.Post("/posts/second_stage", post.RunSecondStage)
	api.Post("/posts/fill_quote", post.FillQuote)
	api.Post("/posts/remove", post.RemovePost)

	deletion := handlers.NewDeletionHandler(deletionService)
	api.Post("/deletion/request", deletion.RequestDeletion)
	api.Post("/deletion/cancel", deletion.CancelDeletion)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(*cfg, accountRepo, platformClient, notifier)
	deletionJob := job.NewDeletionJob(*cfg, deletionQueueRepo, postRepo, accountRepo, attemptRepo, platformClient, notifier)
	quoteJob := job.NewQuoteJob(*cfg, accountRepo, postRepo, platformClient)
	scanJob := job.NewPublishScanJob(*cfg, postRepo, publishService)

	c := cron.New()
	c.AddFunc("@every 00h02m00s", scanJob.ScanDuePosts)
	c.AddFunc("@every 00h02m00s", scanJob.ScanSecondStage)
	c.AddFunc("@every 00h15m00s", quoteJob.MirrorLatest)
	c.AddFunc("@every 01h00m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 01h00m00s", deletionJob.ProcessQueue)
	c.Start()

	// queue
	queueW := queue.NewQueue(*cfg, publishService, client)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)
		mux.HandleFunc(queue.TaskTypeSecondStage, queueW.HandleSecondStageTask)

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
