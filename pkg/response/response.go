package response

import "github.com/gin-gonic/gin"

// Envelope is the uniform body shape for every endpoint.
type Envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Data: data})
}

func Error(c *gin.Context, status int, err error) {
	c.JSON(status, Envelope{Error: err.Error()})
}
