// Package response writes the board API's JSON envelope. Every endpoint
// replies with {"success":true,"data":...} or {"success":false,"error":...}
// so the board client can branch on a single flag before reading the body.
package response

import "github.com/gin-gonic/gin"

// Success wraps data in the success envelope.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes the failure envelope with a machine-readable code and a
// message suitable for showing to the user.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   errorBody(code, message, nil),
	})
}

// ErrorWithDetails is Error with a per-field details object, used for
// signup validation failures.
func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   errorBody(code, message, details),
	})
}

func errorBody(code, message string, details any) gin.H {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	return body
}
