package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsPayload struct {
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	TechnicianName string `json:"technician_name"`
}

// Login authenticates a technician and returns a signed token.
func (h *Handler) Login(c *gin.Context) {
	var p credentialsPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "username and password are required"})
		return
	}

	user, err := h.auth.Authenticate(p.Username, p.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid credentials"})
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"token":           token,
		"username":        user.Username,
		"technician_name": user.TechnicianName,
	}})
}

// Register creates a technician account.
func (h *Handler) Register(c *gin.Context) {
	var p credentialsPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "username and password are required"})
		return
	}

	user, err := h.auth.CreateUser(p.Username, p.Password, p.TechnicianName)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Unable to create user: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"technician_name": user.TechnicianName,
	}})
}
