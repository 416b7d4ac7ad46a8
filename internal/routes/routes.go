package routes

import (
	"net/http"
	"os"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/handlers"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware tells the browser the configured frontend origin may call
// us with credentials and our custom headers.
func CORSMiddleware() gin.HandlerFunc {
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204 before hitting any handler.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, uploadsDir string) *gin.Engine {
	router := gin.Default()

	// CORS must run before everything else.
	router.Use(CORSMiddleware())

	// Uploaded images are served straight off disk.
	router.Static("/uploads", uploadsDir)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Public Product Routes ---
		v1.GET("/products/search", h.SearchProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/products/:id/ratings", h.GetProductRatings)

		// --- Realtime (token rides in the query string) ---
		v1.GET("/ws", h.ServeWS)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB))
		{
			auth.GET("/profile/me", h.GetMyProfile)

			// --- Supplier Application ---
			auth.POST("/supplier/apply", h.ApplySupplier)

			// --- Favorites & Albums ---
			auth.POST("/favorites", h.AddFavorite)
			auth.DELETE("/favorites/:product_id", h.RemoveFavorite)
			auth.GET("/favorites", h.GetMyFavorites)
			auth.POST("/albums", h.CreateAlbum)
			auth.GET("/albums", h.GetMyAlbums)
			auth.GET("/albums/:id", h.GetAlbum)
			auth.DELETE("/albums/:id", h.DeleteAlbum)
			auth.POST("/albums/:id/favorites", h.AddAlbumFavorite)
			auth.DELETE("/albums/:id/favorites/:favorite_id", h.RemoveAlbumFavorite)

			// --- Ratings ---
			auth.POST("/ratings", h.RateProduct)
			auth.DELETE("/ratings/:product_id", h.RemoveRating)

			// --- Messaging ---
			auth.POST("/conversations", h.CreateConversation)
			auth.GET("/conversations", h.GetMyConversations)
			auth.GET("/conversations/:id/messages", h.GetConversationMessages)
			auth.POST("/messages", h.SendMessage)
			auth.GET("/messages/:id", h.GetMessage)

			// --- Notifications ---
			auth.GET("/notifications", h.GetMyNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)

			// --- Geocoding Proxy ---
			auth.GET("/geo/search", h.SearchPlaces)
			auth.GET("/geo/reverse", h.ReversePlace)
		}

		// --- Supplier-Only Routes (Verified Suppliers) ---
		supplier := v1.Group("/supplier")
		supplier.Use(middleware.AuthMiddleware(h.DB))
		supplier.Use(middleware.SupplierMiddleware(h.DB))
		{
			supplier.POST("/products", h.CreateProduct)
			supplier.GET("/products", h.GetMyProducts)
			supplier.PATCH("/products/:id", h.UpdateProduct)
			supplier.DELETE("/products/:id", h.DeleteProduct)
			supplier.POST("/products/:id/crop", h.CropProductImage)

			supplier.POST("/sales-reports", h.CreateSalesReport)
			supplier.GET("/sales-reports", h.GetMySalesReports)
			supplier.PATCH("/sales-reports/:id", h.UpdateSalesReport)
			supplier.DELETE("/sales-reports/:id", h.DeleteSalesReport)

			supplier.GET("/sales-analytics", h.GetMySalesAnalytics)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.GET("/suppliers/pending", h.GetPendingSuppliers)
			admin.PATCH("/suppliers/:id/verify", h.VerifySupplier)
			admin.PATCH("/suppliers/:id/reject", h.RejectSupplier)

			admin.GET("/products/pending", h.GetPendingProducts)
			admin.PATCH("/products/:id/verify", h.VerifyProduct)
			admin.PATCH("/products/:id/reject", h.RejectProduct)

			admin.GET("/analytics/new-users", h.GetNewUserAnalytics)
			admin.GET("/analytics/new-suppliers", h.GetNewSupplierAnalytics)
			admin.GET("/analytics/new-products", h.GetNewProductAnalytics)
			admin.GET("/analytics/top-suppliers", h.GetTopSuppliers)
		}
	}

	return router
}
