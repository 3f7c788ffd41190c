package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/OldStager01/churn-dashboard/pkg/config"
)

var (
	defaultAllowMethods  = []string{"GET", "POST", "OPTIONS"}
	defaultAllowHeaders  = []string{"Origin", "Content-Type", "Accept", TraceIDHeader}
	defaultExposeHeaders = []string{TraceIDHeader}
)

// CORSConfig maps the api.cors section onto gin-contrib/cors. An empty
// origin list or "*" allows every origin.
func CORSConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     orDefault(cfg.AllowedMethods, defaultAllowMethods),
		AllowHeaders:     orDefault(cfg.AllowedHeaders, defaultAllowHeaders),
		ExposeHeaders:    orDefault(cfg.ExposedHeaders, defaultExposeHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if allowsAll(cfg.AllowedOrigins) {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}

func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(CORSConfig(cfg))
}

func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
