// Package handlers holds the gin handlers shared across route groups and
// the JSON error envelope every handler uses.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taniconnect_back_end/internal/apperr"
)

const (
	msgInternal = "Something went wrong. Please try again later."
	msgGateway  = "Failed to create payment. Please try again later."
)

// Error writes the {"message", "errors"} envelope for err. Internal and
// gateway details stay in the log.
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	var (
		validation *apperr.ValidationError
		auth       *apperr.AuthError
		notFound   *apperr.NotFoundError
		gateway    *apperr.GatewayError
	)
	switch {
	case errors.As(err, &validation):
		body := gin.H{"message": validation.Message}
		if len(validation.Fields) > 0 {
			body["errors"] = validation.Fields
		}
		c.JSON(status, body)
	case errors.As(err, &auth):
		c.JSON(status, gin.H{"message": auth.Message})
	case errors.As(err, &notFound):
		c.JSON(status, gin.H{"message": notFound.Error()})
	case status == http.StatusForbidden:
		c.JSON(status, gin.H{"message": "Invalid signature"})
	case errors.As(err, &gateway):
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"message": msgGateway})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"message": msgInternal})
	}
}
