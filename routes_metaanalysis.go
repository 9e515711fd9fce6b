package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"metacurate/metaanalysis"
	"metacurate/models"
)

type algorithmResponse struct {
	Type       string                            `json:"type"`
	Name       string                            `json:"name"`
	Summary    string                            `json:"summary"`
	Parameters map[string]metaanalysis.Parameter `json:"parameters"`
	Defaults   metaanalysis.Arguments            `json:"defaults"`
	MultiGroup bool                              `json:"multiGroup"`
}

func setupMetaAnalysisRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/meta-analysis")

	rg.GET("/algorithms", func(c *gin.Context) {
		types := make(map[string][]string)
		for _, t := range a.spec.AnalysisTypes() {
			types[t] = a.spec.AlgorithmNames(t)
		}
		c.JSON(http.StatusOK, gin.H{
			"types":      types,
			"correctors": a.spec.AlgorithmNames(metaanalysis.CorrectorType),
		})
	})

	// Auswahl eines Algorithmus setzt die Argumente auf die Defaults zurück
	rg.GET("/algorithms/:type/:name", func(c *gin.Context) {
		algo, ok := a.spec.Lookup(c.Param("type"), c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown algorithm"})
			return
		}
		c.JSON(http.StatusOK, algorithmResponse{
			Type:       c.Param("type"),
			Name:       c.Param("name"),
			Summary:    algo.Summary,
			Parameters: algo.Parameters,
			Defaults:   metaanalysis.DefaultArguments(algo.Parameters),
			MultiGroup: metaanalysis.IsMultiGroup(c.Param("name")),
		})
	})

	// Flacher Merge eines Teil-Updates über die aktuellen Argumente
	rg.POST("/arguments/patch", func(c *gin.Context) {
		var req struct {
			Type  string                 `json:"type" binding:"required"`
			Name  string                 `json:"name" binding:"required"`
			Args  metaanalysis.Arguments `json:"args"`
			Patch metaanalysis.Arguments `json:"patch"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		algo, ok := a.spec.Lookup(req.Type, req.Name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown algorithm"})
			return
		}
		args := req.Args
		if args == nil {
			args = metaanalysis.DefaultArguments(algo.Parameters)
		}
		c.JSON(http.StatusOK, args.Patch(req.Patch))
	})

	rg.POST("/specification", func(c *gin.Context) {
		var req metaanalysis.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		resolved, err := a.spec.BuildSpecification(req)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, resolved)
	})

	prg := router.Group("/projects/:id/meta-analyses")

	// Speichert eine Spezifikation; Studyset und Annotation kommen ohne Angabe aus der Ingestion
	prg.POST("/", func(c *gin.Context) {
		var req struct {
			Name    string               `json:"name" binding:"required"`
			Request metaanalysis.Request `json:"request"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		ctx := c.Request.Context()
		p, err := a.curation.GetProject(ctx, c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		if req.Request.StudysetID == "" {
			req.Request.StudysetID = p.NeurostoreStudysetID
		}
		if req.Request.AnnotationID == "" {
			req.Request.AnnotationID = p.NeurostoreAnnotationID
		}
		if req.Request.Filter == "" {
			req.Request.Filter = "included"
		}
		resolved, err := a.spec.BuildSpecification(req.Request)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		raw, err := json.Marshal(resolved)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		ma := models.MetaAnalysis{
			ProjectID:     p.ID,
			Name:          req.Name,
			Estimator:     resolved.Estimator.Type,
			Specification: datatypes.JSON(raw),
		}
		if resolved.Corrector != nil {
			ma.Corrector = resolved.Corrector.Type
		}
		if err := a.db.WithContext(ctx).Create(&ma).Error; err != nil {
			a.log.Error("Failed to save meta-analysis", zap.String("project_id", p.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save meta-analysis"})
			return
		}
		c.JSON(http.StatusCreated, ma)
	})

	prg.GET("/", func(c *gin.Context) {
		var out []models.MetaAnalysis
		if err := a.db.WithContext(c.Request.Context()).
			Where("project_id = ?", c.Param("id")).
			Order("id desc").
			Find(&out).Error; err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
