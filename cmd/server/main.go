package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/internal/bootstrap"
	"github.com/brnikita/refine-supabase-apps-builder/internal/config"
	"github.com/brnikita/refine-supabase-apps-builder/internal/domain/ports"
	"github.com/brnikita/refine-supabase-apps-builder/internal/infrastructure/database"
	"github.com/brnikita/refine-supabase-apps-builder/internal/infrastructure/persistence"
	"github.com/brnikita/refine-supabase-apps-builder/internal/interfaces/middleware"
	"github.com/brnikita/refine-supabase-apps-builder/internal/interfaces/rest"
	"github.com/brnikita/refine-supabase-apps-builder/internal/interfaces/ws"
)

func main() {
	cfg := config.Load()

	// Select the storage backend. The db handle stays nil on the memory
	// backend; the schema manager treats that as "no DDL".
	var (
		registry ports.AppRegistry
		store    ports.RecordStore
		db       *sql.DB
	)
	if cfg.UseMySQL() {
		conn, err := database.GetInstance()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		db = conn.DB()
		log.Println("✅ Database connection established")

		appRepo := persistence.NewAppRepository(db)
		if err := appRepo.EnsureSystemTables(context.Background()); err != nil {
			log.Fatalf("Failed to initialize system tables: %v", err)
		}
		registry = appRepo
		store = persistence.NewRecordRepository(db)
	} else {
		registry = persistence.NewMemoryRegistry()
		store = persistence.NewMemoryStore()
		log.Println("✅ In-memory backend selected (set DATA_BACKEND=mysql to persist)")
	}

	// Initialize service manager
	svcMgr, err := services.NewServiceManager(registry, store, db, services.ServiceManagerOptions{
		SessionTTL:      cfg.SessionTTL,
		JanitorSchedule: cfg.JanitorSchedule,
	})
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	log.Println("🔧 Service manager initialized")

	// Seed the demo app (DEMO_SEED=true) and any mounted blueprint directory
	if cfg.DemoSeed {
		if err := bootstrap.InitializeDemoApp(context.Background(), svcMgr); err != nil {
			log.Fatalf("Failed to initialize demo app: %v", err)
		}
	}
	if cfg.SeedDir != "" {
		if err := bootstrap.LoadBlueprintDir(context.Background(), svcMgr, cfg.SeedDir); err != nil {
			log.Fatalf("Failed to load blueprint seeds: %v", err)
		}
	}

	// Create Gin router
	router := gin.Default()

	// CORS middleware - Allow credentials from any origin
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Debug/pprof endpoints for goroutine debugging
	// Goroutine stacks: http://localhost:8080/debug/pprof/goroutine?debug=2
	debug := router.Group("/debug/pprof")
	{
		debug.GET("/", gin.WrapF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/debug/pprof/", http.StatusMovedPermanently)
		})))
		debug.GET("/goroutine", gin.WrapH(http.DefaultServeMux))
		debug.GET("/heap", gin.WrapH(http.DefaultServeMux))
		debug.GET("/threadcreate", gin.WrapH(http.DefaultServeMux))
		debug.GET("/block", gin.WrapH(http.DefaultServeMux))
		debug.GET("/mutex", gin.WrapH(http.DefaultServeMux))
		debug.GET("/profile", gin.WrapH(http.DefaultServeMux))
		debug.GET("/trace", gin.WrapH(http.DefaultServeMux))
	}

	// Initialize handlers
	appHandler := rest.NewAppHandler(svcMgr)
	runtimeHandler := rest.NewRuntimeHandler(svcMgr)
	dataHandler := rest.NewDataHandler(svcMgr)
	wsHandler := ws.NewHandler(svcMgr)

	// Initialize middleware. The runtime surface takes any visitor and
	// downgrades missing tokens to the anonymous viewer; the builder surface
	// demands a valid token once a JWT secret is configured.
	identity := middleware.Identity()

	// API routes
	api := router.Group("/api")
	{
		// Builder routes (app lifecycle + blueprint versions)
		apps := api.Group("/apps")
		if cfg.JWTSecret != "" {
			apps.Use(middleware.RequireAuth())
		} else {
			log.Println("⚠️  JWT_SECRET not set, builder API accepts unauthenticated requests")
		}
		{
			apps.POST("", appHandler.CreateApp)
			apps.GET("", appHandler.ListApps)
			apps.GET("/:id", appHandler.GetApp)
			apps.PUT("/:id/blueprint", appHandler.UpdateBlueprint)
			apps.POST("/:id/start", appHandler.StartApp)
			apps.POST("/:id/stop", appHandler.StopApp)
			apps.DELETE("/:id", appHandler.DeleteApp)
		}

		// Runtime routes (served apps, sessions, records)
		runtime := api.Group("/runtime")
		runtime.Use(identity)
		{
			runtime.GET("/apps/:slug", runtimeHandler.GetRuntimeApp)
			runtime.POST("/apps/:slug/sessions", runtimeHandler.CreateSession)

			runtime.GET("/apps/:slug/data/:entity", dataHandler.ListRecords)
			runtime.POST("/apps/:slug/data/:entity", dataHandler.CreateRecord)
			runtime.GET("/apps/:slug/data/:entity/:id", dataHandler.GetRecord)
			runtime.PUT("/apps/:slug/data/:entity/:id", dataHandler.UpdateRecord)
			runtime.DELETE("/apps/:slug/data/:entity/:id", dataHandler.DeleteRecord)

			runtime.GET("/sessions/:sid/page", runtimeHandler.GetPage)
			runtime.POST("/sessions/:sid/actions", runtimeHandler.DispatchAction)
			runtime.POST("/sessions/:sid/navigate", runtimeHandler.Navigate)
			runtime.DELETE("/sessions/:sid", runtimeHandler.EndSession)
			runtime.GET("/sessions/:sid/ws", wsHandler.HandleConnection)
		}
	}

	// Start background workers
	svcMgr.StartJanitor()
	log.Printf("⏰ Session janitor started (schedule %s, TTL %s)", cfg.JanitorSchedule, cfg.SessionTTL)

	// Start server
	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 Blueprint Engine Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:        http://localhost:%s", cfg.Port)
	log.Printf("🧩 Builder API:   http://localhost:%s/api/apps", cfg.Port)
	log.Printf("🎨 Runtime API:   http://localhost:%s/api/runtime/apps/:slug", cfg.Port)
	log.Printf("💾 Data API:      http://localhost:%s/api/runtime/apps/:slug/data/:entity", cfg.Port)
	log.Printf("🔌 WebSocket:     ws://localhost:%s/api/runtime/sessions/:sid/ws", cfg.Port)
	log.Printf("💚 Health check:  http://localhost:%s/health\n", cfg.Port)

	// Create HTTP Server
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background workers
	svcMgr.StopJanitor()
	log.Println("🛑 Session janitor stopped")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
