package utils

import "github.com/gin-gonic/gin"

// ErrorResponse writes the `{"detail": ...}` error envelope used by every
// endpoint of the API.
func ErrorResponse(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, gin.H{"detail": detail})
}

// MessageResponse writes the `{"message": ...}` envelope used by the
// email-change endpoints.
func MessageResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}
