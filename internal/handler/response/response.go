package response

import (
	"net/http"

	"staking-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Success writes a 200 response with the given payload as-is.
// Success shapes are defined per action by the wire contract, so no envelope here.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes the failure shape {"error": "..."} with the status class
// carried by the Errno (400 for validation/business errors, 5xx otherwise).
func Error(c *gin.Context, err error) {
	status, msg := errno.Decode(err)
	c.JSON(status, gin.H{"error": msg})
}
