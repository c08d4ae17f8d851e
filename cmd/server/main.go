package main

import (
	"context"
	"database/sql"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"parkmate/internal/api"
	"parkmate/internal/auth"
	"parkmate/internal/repository"
	"parkmate/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	spotRepo := repository.NewSpotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	adminAuthRepo := repository.NewAdminAuthRepository(db)

	placesClient := service.NewGooglePlacesClient(os.Getenv("GOOGLE_MAPS_API_KEY"), newRedisClient())
	notifier := service.NewNotifierFromEnv()

	ledgerSvc := service.NewLedgerService(userRepo)
	catalogSvc := service.NewCatalogService(spotRepo, placesClient, time.Now().UnixNano())
	reservationSvc := service.NewReservationService(reservationRepo)
	jobSvc := service.NewJobService(jobRepo, notifier)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)

	userHandler := api.NewUserHandler(ledgerSvc)
	spotHandler := api.NewSpotHandler(catalogSvc)
	reservationHandler := api.NewReservationHandler(reservationSvc)
	adminHandler := api.NewAdminHandler(spotRepo)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)

	r := mux.NewRouter()

	// User-facing endpoints (chat layer supplies identity via X-Chat-User)
	userAPI := r.PathPrefix("/api").Subrouter()
	userAPI.Use(auth.ChatUserMiddleware)
	userAPI.HandleFunc("/users/start", userHandler.Start).Methods("POST")
	userAPI.HandleFunc("/users/car", userHandler.SetCarNumber).Methods("POST")
	userAPI.HandleFunc("/users/topup", userHandler.TopUp).Methods("POST")
	userAPI.HandleFunc("/spots/nearby", spotHandler.FindNearby).Methods("GET")
	userAPI.HandleFunc("/spots/search", spotHandler.SearchByName).Methods("GET")
	userAPI.HandleFunc("/spots/free", spotHandler.GenerateFreeSpots).Methods("POST")
	userAPI.HandleFunc("/reservations", reservationHandler.CreateReservation).Methods("POST")
	userAPI.HandleFunc("/reservations", reservationHandler.ListReservations).Methods("GET")

	// Admin endpoints (protected)
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/spots", adminHandler.ListSpots).Methods("GET")
	admin.HandleFunc("/spots/{id}", adminHandler.UpdateSpot).Methods("PUT")
	admin.HandleFunc("/admins", adminAuthHandler.CreateAdmin).Methods("POST")

	reaper := startReaper(jobSvc)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr: ":" + port,
		Handler: handlers.LoggingHandler(os.Stdout, handlers.CORS(
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", auth.ChatUserHeader}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		)(r)),
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown; let the in-flight reaper cycle finish so no
	// spot/session pair is left half-applied.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("Shutting down...")

	<-reaper.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// startReaper schedules the expiry reaper. Each cycle sleeps a small random
// jitter first so multiple instances don't hammer the store on the same tick.
func startReaper(jobSvc *service.JobService) *cron.Cron {
	interval := os.Getenv("REAPER_INTERVAL")
	if interval == "" {
		interval = "60s"
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc("@every "+interval, func() {
		time.Sleep(time.Duration(rand.Intn(5000)) * time.Millisecond)
		if err := jobSvc.ReclaimExpiredSessions(context.Background()); err != nil {
			log.Printf("Reaper cycle failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule reaper: %v", err)
	}
	c.Start()
	return c
}

func newRedisClient() *redis.Client {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, places cache disabled: %v", err)
		return nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unreachable, places cache disabled: %v", err)
		return nil
	}
	return client
}
