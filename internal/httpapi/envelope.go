package httpapi

import "github.com/gin-gonic/gin"

// Response envelope: success payloads ride under "data", failures under
// "error" (or "errors" for field validation). Controllers elsewhere in
// the platform rely on this shape.

func respondData(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"data": data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func respondErrors(c *gin.Context, status int, msgs []string) {
	c.AbortWithStatusJSON(status, gin.H{"errors": msgs})
}
