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
	config "github.com/jsandell/postline/configs"
	"github.com/jsandell/postline/internal/api/handlers"
	"github.com/jsandell/postline/internal/api/middleware"
	job "github.com/jsandell/postline/internal/jobs"
	"github.com/jsandell/postline/internal/queue"
	"github.com/jsandell/postline/internal/repository"
	"github.com/jsandell/postline/internal/scheduler"
	"github.com/jsandell/postline/internal/service"
	_ "github.com/lib/pq"
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

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    50 * 1024 * 1024, // 50 MB
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
	recordRepo := repository.NewRecordRepository(db)

	remote := scheduler.NewClient(cfg.Scheduler)
	locks := service.NewProfileLocks()

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	recordService := service.NewRecordService(recordRepo, remote)
	lifecycleService := service.NewLifecycleService(recordRepo, remote)
	reconcileService := service.NewReconcileService(recordRepo, remote, locks, cfg.Scheduler.ProfileID)
	approvalService := service.NewApprovalService(recordRepo, remote, locks, cfg.Scheduler.ProfileID)
	queueService := service.NewQueueService(remote, cfg.Scheduler.ProfileID)
	mediaService := service.NewMediaService(*cfg)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	record := handlers.NewRecordHandler(recordService, lifecycleService)
	api.Get("/records", record.ListRecords)
	api.Get("/records/info", record.GetRecordInfo)
	api.Post("/records", record.CreateRecord)
	api.Post("/records/update", record.UpdateRecord)
	api.Post("/records/remove", record.RemoveRecord)
	api.Post("/records/submit", record.SubmitDraft)
	api.Post("/records/reject", record.RejectRecord)
	api.Post("/records/restore", record.RestoreDraft)
	api.Post("/records/unapprove", record.Unapprove)
	api.Post("/records/unschedule", record.Unschedule)

	approval := handlers.NewApprovalHandler(approvalService, userService)
	api.Post("/approve", approval.ApproveRecords)
	api.Post("/records/schedule", approval.ScheduleRecord)

	reconcile := handlers.NewReconcileHandler(reconcileService, client)
	api.Post("/reconcile", reconcile.Reconcile)
	api.Post("/reconcile/async", reconcile.ReconcileAsync)

	queueH := handlers.NewQueueHandler(queueService)
	api.Get("/accounts", queueH.ListAccounts)
	api.Get("/queue/schedule", queueH.GetSchedule)
	api.Post("/queue/schedule", queueH.SetSchedule)
	api.Get("/queue/preview", queueH.PreviewSlots)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadImage)

	// cron jobs
	reconcileJob := job.NewReconcileJob(client)

	// queue worker
	queueW := queue.NewQueue(reconcileService)

	c := cron.New()
	c.AddFunc(cfg.ReconcileSpec, reconcileJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeReconcile, queueW.HandleReconcileTask)

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
