package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"metacurate/curation"
	"metacurate/metaanalysis"
	"metacurate/providers/neurostore"
	"metacurate/services"
)

// respondError übersetzt Service-Fehler in HTTP-Antworten.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnknownTag),
		errors.Is(err, metaanalysis.ErrUnknownAlgorithm),
		errors.Is(err, metaanalysis.ErrUnknownCorrector),
		errors.Is(err, metaanalysis.ErrUnknownArgument),
		errors.Is(err, metaanalysis.ErrMissingSecondDataset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrIngestionRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUpstream), errors.Is(err, neurostore.ErrUnauthorized):
		log.Warn("External API request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, curation.ErrInvalidColumnCount):
		log.Error("Invalid project configuration", zap.String("project_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// mutationResponse ist die Antwort aller Kurationsoperationen; Fehlgriffe sind kein Fehler.
func mutationResponse(c *gin.Context, st curation.State, applied bool) {
	c.JSON(http.StatusOK, gin.H{"applied": applied, "state": st})
}

func setupProjectRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			IsPrisma    bool   `json:"is_prisma"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		p, err := a.curation.CreateProject(c.Request.Context(), req.Name, req.Description, req.IsPrisma)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	rg.GET("/", func(c *gin.Context) {
		projects, err := a.curation.ListProjects(c.Request.Context())
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	})

	rg.GET("/:id", func(c *gin.Context) {
		p, err := a.curation.GetProject(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	rg.GET("/:id/groups", func(c *gin.Context) {
		groups, err := a.curation.Groups(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusOK, groups)
	})

	// Stubs einer Gruppe; ohne group_id die Standardauswahl
	rg.GET("/:id/groups/stubs", func(c *gin.Context) {
		g, stubs, err := a.curation.GroupStubs(c.Request.Context(), c.Param("id"), c.Query("group_id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		if stubs == nil {
			stubs = []curation.StubStudy{}
		}
		c.JSON(http.StatusOK, gin.H{"group": g, "stubs": stubs})
	})

	rg.POST("/:id/exclusions", func(c *gin.Context) {
		var req struct {
			Label string `json:"label" binding:"required"`
			Phase string `json:"phase"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		tag, err := a.curation.CreateExclusion(c.Request.Context(), c.Param("id"), req.Label, req.Phase)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, tag)
	})

	rg.POST("/:id/info-tags", func(c *gin.Context) {
		var req struct {
			Label string `json:"label" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		tag, err := a.curation.CreateInfoTag(c.Request.Context(), c.Param("id"), req.Label)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		c.JSON(http.StatusCreated, tag)
	})

	rg.GET("/:id/prisma-report", func(c *gin.Context) {
		rep, ok, err := a.curation.PrismaReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "project does not use the PRISMA workflow"})
			return
		}
		c.JSON(http.StatusOK, rep)
	})
}

type stubOperation struct {
	ColumnIndex *int   `json:"column_index" binding:"required"`
	TagID       string `json:"tag_id"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

func setupStubRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects/:id/stubs/:stubId")

	bind := func(c *gin.Context) (stubOperation, bool) {
		var op stubOperation
		if err := c.ShouldBindJSON(&op); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column_index required"})
			return op, false
		}
		return op, true
	}

	rg.POST("/promote", func(c *gin.Context) {
		op, ok := bind(c)
		if !ok {
			return
		}
		st, applied, err := a.curation.PromoteStub(c.Request.Context(), c.Param("id"), *op.ColumnIndex, c.Param("stubId"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})

	rg.POST("/demote", func(c *gin.Context) {
		op, ok := bind(c)
		if !ok {
			return
		}
		st, applied, err := a.curation.DemoteStub(c.Request.Context(), c.Param("id"), *op.ColumnIndex, c.Param("stubId"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})

	// Leere tag_id hebt den Ausschluss auf
	rg.PUT("/exclusion", func(c *gin.Context) {
		op, ok := bind(c)
		if !ok {
			return
		}
		st, applied, err := a.curation.SetExclusion(c.Request.Context(), c.Param("id"), *op.ColumnIndex, c.Param("stubId"), op.TagID)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})

	rg.POST("/tags", func(c *gin.Context) {
		op, ok := bind(c)
		if !ok {
			return
		}
		st, applied, err := a.curation.AddTag(c.Request.Context(), c.Param("id"), *op.ColumnIndex, c.Param("stubId"), op.TagID)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})

	rg.DELETE("/tags/:tagId", func(c *gin.Context) {
		columnIndex, err := strconv.Atoi(c.Query("column_index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column_index required"})
			return
		}
		st, applied, err := a.curation.RemoveTag(c.Request.Context(), c.Param("id"), columnIndex, c.Param("stubId"), c.Param("tagId"))
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})

	rg.PATCH("/fields", func(c *gin.Context) {
		op, ok := bind(c)
		if !ok {
			return
		}
		st, applied, err := a.curation.UpdateField(c.Request.Context(), c.Param("id"), *op.ColumnIndex, c.Param("stubId"), op.Field, op.Value)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		mutationResponse(c, st, applied)
	})
}
