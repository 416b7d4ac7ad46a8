package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/auth"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Registration & Login ---
//

// RegisterUserInput is separate from models.User so clients can never
// submit an id or role.
type RegisterUserInput struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /v1/register.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 2. --- Reject Duplicate Emails ---
	var existing int
	err := h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", input.Email).Scan(&existing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking email"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "An account with this email already exists"})
		return
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to hash password"})
		return
	}

	// 4. --- Save to Database ---
	now := time.Now()
	user := &models.User{
		Role:        "buyer",
		Email:       input.Email,
		DisplayName: input.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO users (role, email, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := h.DB.Exec(query, user.Role, user.Email, password.Hash, user.DisplayName, now, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create user"})
		return
	}
	user.ID, _ = result.LastInsertId()

	// 5. --- Send Success Response ---
	// The 'json:"-"' tag keeps the hash out of the response.
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login.
// Wrong email and wrong password produce the same message on purpose.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 2. --- Look Up the User ---
	var user models.User
	query := `
		SELECT id, role, email, password_hash, display_name, created_at, updated_at
		FROM users
		WHERE email = ?`
	err := h.DB.QueryRow(query, input.Email).Scan(
		&user.ID,
		&user.Role,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid login credentials"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error during login"})
		return
	}

	// 3. --- Check the Password ---
	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to verify password"})
		return
	}
	if !matches {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid login credentials"})
		return
	}

	// 4. --- Issue a Token ---
	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

//
// --- Profile ---
//

// GetMyProfile is the handler for GET /v1/profile/me.
// It attaches the supplier row when the user has applied as a supplier.
func (h *Handlers) GetMyProfile(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var user models.User
	query := `
		SELECT id, role, email, display_name, created_at, updated_at
		FROM users
		WHERE id = ?`
	err := h.DB.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Role,
		&user.Email,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "User not found"})
		return
	}

	// Supplier profile is optional; sql.ErrNoRows just means "buyer only".
	supplier, err := h.getSupplierByUserID(h.DB, userID)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error loading supplier profile"})
		return
	}
	user.Supplier = supplier

	c.JSON(http.StatusOK, gin.H{"user": user})
}
