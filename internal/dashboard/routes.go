package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/trainops/internal/operr"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, stats *statsCache) {
	api := router.Group("/api")

	api.GET("/session", handleSession(db))
	api.GET("/trains", handleTrains(db))
	api.GET("/trains/:id", handleTrain(db))
	api.GET("/trains/:id/switchlist", handleSwitchList(db))
	api.GET("/orders", handleOrders(db))
	api.GET("/cars", handleCars(db))
	api.GET("/industries", handleIndustries(db))
	api.GET("/stats", handleStats(stats))
	api.GET("/events", handleEvents(db))
}

// renderErr maps engine errors to HTTP statuses.
func renderErr(c *gin.Context, err error) {
	var nf *operr.NotFound
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func handleSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := sessionView(db)
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func handleTrains(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := trainViews(db, c.Query("status"))
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleTrain(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := trainView(db, c.Param("id"))
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func handleSwitchList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sl, err := switchListView(db, c.Param("id"))
		if err != nil {
			renderErr(c, err)
			return
		}
		if sl == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no switch list generated"})
			return
		}
		c.JSON(http.StatusOK, sl)
	}
}

func handleOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := orderViews(db, c.Query("status"), c.Query("industry"))
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleCars(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := carViews(db)
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleIndustries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := industryViews(db)
		if err != nil {
			renderErr(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleStats(stats *statsCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.snapshot())
	}
}
