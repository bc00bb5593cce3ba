package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fdg312/mealplan-hub/internal/auth"
	"github.com/fdg312/mealplan-hub/internal/config"
	"github.com/fdg312/mealplan-hub/internal/mealplans"
	"github.com/fdg312/mealplan-hub/internal/scheduler"
	"github.com/fdg312/mealplan-hub/internal/storage"
	"github.com/fdg312/mealplan-hub/internal/storage/memory"
	"github.com/fdg312/mealplan-hub/internal/storage/postgres"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.MealPlansStorage
	planService    *mealplans.Service
	scheduler      *scheduler.Scheduler
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()

	validator := mealplans.NewValidator(cfg.PlanWindowDays, cfg.MaxActivePlans)
	s.planService = mealplans.NewService(s.storage, validator)
	s.scheduler = scheduler.New(s.planService, cfg.SweepHourUTC, cfg.SweepOnStart)

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("Используется in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("Подключение к PostgreSQL...")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("Ошибка подключения к PostgreSQL: %v", err)
		log.Println("Fallback на in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("PostgreSQL подключен успешно")
	s.storage = pgStorage
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Meal Plans API
	planHandler := mealplans.NewHandler(s.planService)

	// POST /v1/mealplans - create plan
	s.mux.HandleFunc("POST /v1/mealplans", planHandler.HandleCreate)

	// GET /v1/mealplans - list caller's plans
	s.mux.HandleFunc("GET /v1/mealplans", planHandler.HandleList)

	// PATCH /v1/mealplans/{id} - replace plan entries
	s.mux.HandleFunc("PATCH /v1/mealplans/{id}", planHandler.HandleUpdate)

	// DELETE /v1/mealplans/{id} - delete plan
	s.mux.HandleFunc("DELETE /v1/mealplans/{id}", planHandler.HandleDelete)

	// POST /v1/mealplans/sweep - administrative expiry sweep trigger
	s.mux.HandleFunc("POST /v1/mealplans/sweep", planHandler.HandleSweep)
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler returns the full middleware chain (outermost first):
// CORS → Rate Limit → Auth → Router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.ResolveUser(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает планировщик и HTTP сервер; блокируется до SIGINT/SIGTERM.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.scheduler.Start()

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Meal Plans API: http://localhost%s/v1/mealplans\n", addr)

	select {
	case err := <-errCh:
		s.scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	log.Println("Получен сигнал завершения, останавливаемся...")

	// Let an in-flight sweep finish before closing storage.
	s.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN server: shutdown: %v", err)
	}

	return s.Close()
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
