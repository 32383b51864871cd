package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-service/config"
	"course-service/internal/api"
	"course-service/internal/auth"
	"course-service/internal/broker"
	"course-service/internal/redisclient"
	"course-service/internal/service"
	"course-service/internal/store"
	"course-service/internal/util"
	"course-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting course service")

	tp, err := util.InitTracer("course-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	paymentClient := service.NewPaymentClient(cfg.Payment)

	accessService := service.NewAccessService(db, db, redisClient)
	userService := service.NewUserService(db, tokens)
	courseService := service.NewCourseService(db, accessService, redisClient)
	checkoutService := service.NewCheckoutService(db, db, db, paymentClient, redisClient, eventPublisher)
	progressService := service.NewProgressService(db, db, accessService, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	enrollConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase, cfg.Kafka.ConsumerGroup)
	enrollWorker := worker.NewEnrollmentWorker(enrollConsumer, db, redisClient)
	go func() {
		if err := enrollWorker.Start(workerCtx); err != nil {
			log.Printf("Enrollment worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(userService, courseService, checkoutService, progressService, tokens)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	enrollWorker.Stop()

	log.Println("Server exited")
}
