package middleware

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Role-Based Middleware ---
//
// These run *after* AuthMiddleware. They read 'userID' from the context,
// check the DB for the caller's role (or supplier profile) and enforce it.
//

// queryUserRole is a helper to get the user's role from the DB.
func queryUserRole(db *sql.DB, userID int64) (string, error) {
	var role string
	err := db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err != nil {
		return "", err
	}
	return role, nil
}

// AdminMiddleware allows only users with the 'admin' role through.
func AdminMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "User ID not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}
		userID := userIDRaw.(int64)

		// 2. Query DB for user's role
		role, err := queryUserRole(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Database error checking role"})
			c.Abort()
			return
		}

		// 3. Check permission
		if role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Access denied: Admin role required"})
			c.Abort()
			return
		}

		// 4. Success! Add role to context and proceed.
		c.Set("userRole", role)
		c.Next()
	}
}

// SupplierMiddleware allows only users with a *verified* supplier profile.
// It stores the supplier ID in the context for the handlers behind it.
func SupplierMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "User ID not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}
		userID := userIDRaw.(int64)

		// 2. Look up the supplier row for this user
		var supplierID int64
		var verified bool
		err := db.QueryRow("SELECT id, verified FROM suppliers WHERE user_id = ?", userID).Scan(&supplierID, &verified)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Access denied: Supplier profile required"})
				c.Abort()
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Database error checking supplier"})
			c.Abort()
			return
		}

		// 3. Check verification state
		if !verified {
			c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Your supplier application is still pending verification"})
			c.Abort()
			return
		}

		// 4. Success! Add supplier ID to context and proceed.
		c.Set("supplierID", supplierID)
		c.Next()
	}
}
