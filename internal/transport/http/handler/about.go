package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// About serves the static informational payload the front end probes.
func About(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Hello": "This is the backend for the RAG system."})
}
