package v1

import "github.com/gin-gonic/gin"

// respond writes the storefront envelope: {success: true, data: ...}.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError writes {success: false, message: ...}. The underlying
// error text is attached only outside production.
func respondError(c *gin.Context, status int, message string, err error, production bool) {
	body := gin.H{"success": false, "message": message}
	if err != nil && !production {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}
