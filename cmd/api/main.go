package main

import (
	"log"
	"os"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/chat"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/database"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/geo"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/handlers"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/routes"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/search"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// Tokens cannot be signed or verified without a secret, so fail early.
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("CRITICAL ERROR: JWT_SECRET environment variable is not set.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Image Storage ---
	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	store, err := storage.NewDiskStorage(uploadsDir, baseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// 3. --- Geocoding Upstream ---
	geocoderURL := os.Getenv("GEOCODER_URL")
	if geocoderURL == "" {
		geocoderURL = "https://nominatim.openstreetmap.org"
	}

	// --- Application Setup ---
	// Inject all dependencies into the Handlers struct.
	app := &handlers.Handlers{
		DB:      db,
		Storage: store,
		Hub:     chat.NewHub(),
		Geo:     geo.NewClient(geocoderURL),
		Search:  search.NewSyncer(os.Getenv("SEARCH_SYNC_URL"), os.Getenv("SEARCH_SYNC_API_KEY")),
	}

	// --- 4. Background Worker (Cron) ---
	// Cleans out read notifications older than 30 days, once an hour.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: purging old notifications hourly.")

		for range ticker.C {
			purged, err := app.PurgeOldNotifications()
			if err != nil {
				log.Printf("Notification purge failed: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("Purged %d old notifications.", purged)
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app, uploadsDir)

	// --- Start Server ---
	log.Println("Starting RawMats API server on port 8080...")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
