package response

import "github.com/gin-gonic/gin"

// Envelope is the JSON body shape every endpoint returns: payload plus a
// human message and a stable machine-readable code.
type Envelope struct {
	Data        interface{} `json:"data,omitempty"`
	Message     string      `json:"message"`
	MessageCode string      `json:"message_code"`
}

// JSON writes the envelope with the given status.
func JSON(c *gin.Context, status int, data interface{}, message, code string) {
	c.JSON(status, Envelope{Data: data, Message: message, MessageCode: code})
}

// Error writes an envelope with no payload and aborts the request.
func Error(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, Envelope{Message: message, MessageCode: code})
}
