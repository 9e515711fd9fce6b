package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"metacurate/curation"
	"metacurate/models"
	"metacurate/services"
)

func setupImportRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects/:id/imports")

	rg.GET("/", func(c *gin.Context) {
		st, err := a.curation.State(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, st.Imports)
	})

	// Suche bei pubmed, europepmc oder neurostore
	rg.POST("/search", func(c *gin.Context) {
		var req services.SearchImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		res, err := a.imports.ImportSearch(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	rg.POST("/pmids", func(c *gin.Context) {
		var req struct {
			Name  string   `json:"name"`
			PMIDs []string `json:"pmids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		res, err := a.imports.ImportPMIDs(c.Request.Context(), c.Param("id"), req.Name, req.PMIDs)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	// Multipart-Upload einer CSV-Datei im Exportformat
	rg.POST("/file", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
			return
		}
		defer f.Close()

		name := c.PostForm("name")
		if name == "" {
			name = fh.Filename
		}
		res, err := a.imports.ImportFile(c.Request.Context(), c.Param("id"), name, f)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	rg.POST("/manual", func(c *gin.Context) {
		var req struct {
			Name string             `json:"name"`
			Stub curation.StubStudy `json:"stub"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		res, err := a.imports.ImportManual(c.Request.Context(), c.Param("id"), req.Name, req.Stub)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	rg.DELETE("/:importId", func(c *gin.Context) {
		st, applied, err := a.curation.DeleteImport(c.Request.Context(), c.Param("id"), c.Param("importId"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})
}

func setupIngestionRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects/:id/ingest")

	// Läuft synchron; der Lauf enthält Status und Schritte, auch bei Fehlern
	rg.POST("/", func(c *gin.Context) {
		run, err := a.ingestion.Run(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, run)
	})

	rg.GET("/", func(c *gin.Context) {
		runs, err := a.ingestion.ListRuns(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	rg.GET("/:runId", func(c *gin.Context) {
		runID, err := strconv.ParseUint(c.Param("runId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		run, err := a.ingestion.GetRun(c.Request.Context(), c.Param("id"), uint(runID))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, run)
	})
}

func setupExportRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects/:id/export")

	rg.GET("/archives", func(c *gin.Context) {
		archives, err := a.exports.ListArchives(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, archives)
	})

	// format: csv oder bibtex
	rg.GET("/:format", func(c *gin.Context) {
		exp, err := a.exports.Render(c.Request.Context(), c.Param("id"), c.Param("format"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exp.Filename))
		c.Data(http.StatusOK, exp.ContentType, exp.Content)
	})

	rg.POST("/:format/archive", func(c *gin.Context) {
		rec, err := a.exports.ArchiveProject(c.Request.Context(), c.Param("id"), c.Param("format"), "manual")
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	})
}

func setupSearchFilterRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/search-filters")
	rg.POST("/", func(c *gin.Context) {
		var filter models.SearchFilter
		if err := c.ShouldBindJSON(&filter); err != nil || filter.Name == "" || filter.FilterQuery == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := db.Create(&filter).Error; err != nil {
			log.Error("Failed to create search filter", zap.String("name", filter.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create filter"})
			return
		}
		c.JSON(http.StatusCreated, filter)
	})
	rg.GET("/", func(c *gin.Context) {
		var filters []models.SearchFilter
		query := db.Order("name")
		if source := c.Query("source"); source != "" {
			query = query.Where("source = ?", source)
		}
		if err := query.Find(&filters).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, filters)
	})
}
