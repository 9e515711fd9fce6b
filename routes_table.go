package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"metacurate/table"
)

// tableQuery fragt die Tabellenansicht einer Gruppe ab. Extraktionen werden pro Stub-ID
// mitgeschickt, da sie nicht im Kurationsdokument liegen. Ist State gesetzt, wird er
// unverändert persistiert und auf die Tabelle dieser Gruppe angewendet.
type tableQuery struct {
	GroupID     string                               `json:"group_id"`
	Extractions map[string]map[string]map[string]any `json:"extractions"`
	State       *table.State                         `json:"state"`
}

func setupTableRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/projects/:id/table")

	rg.GET("/state", func(c *gin.Context) {
		st, err := table.LoadState(c.Request.Context(), a.sessions, c.Param("id"))
		if err != nil {
			a.log.Warn("Table state could not be loaded, using default", zap.String("project_id", c.Param("id")), zap.Error(err))
		}
		c.JSON(http.StatusOK, st)
	})

	rg.PUT("/state", func(c *gin.Context) {
		var st table.State
		if err := c.ShouldBindJSON(&st); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table state"})
			return
		}
		if err := st.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := table.SaveState(c.Request.Context(), a.sessions, c.Param("id"), st); err != nil {
			a.log.Error("Failed to save table state", zap.String("project_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save table state"})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	rg.DELETE("/state", func(c *gin.Context) {
		if err := a.sessions.Delete(c.Request.Context(), table.StateKey(c.Param("id"))); err != nil {
			a.log.Error("Failed to reset table state", zap.String("project_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset table state"})
			return
		}
		c.JSON(http.StatusOK, table.DefaultState())
	})

	rg.POST("/query", func(c *gin.Context) {
		var req tableQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.State != nil {
			if err := req.State.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		ctx := c.Request.Context()
		projectID := c.Param("id")

		group, stubs, err := a.curation.GroupStubs(ctx, projectID, req.GroupID)
		if err != nil {
			respondError(c, a.log, err)
			return
		}
		rows := make([]table.Row, len(stubs))
		for i, s := range stubs {
			rows[i] = table.Row{Stub: s, Extractions: req.Extractions[s.ID]}
		}

		t := table.New(table.ExtractionColumns(rows))
		if req.State != nil {
			t.Restore(*req.State)
			// Gespeichert wird der angefragte Zustand, auch Spalten, die in dieser Gruppe fehlen.
			if err := table.SaveState(ctx, a.sessions, projectID, *req.State); err != nil {
				a.log.Error("Failed to save table state", zap.String("project_id", projectID), zap.Error(err))
			}
		} else {
			st, err := table.LoadState(ctx, a.sessions, projectID)
			if err != nil {
				a.log.Warn("Table state could not be loaded, using default", zap.String("project_id", projectID), zap.Error(err))
			}
			t.Restore(st)
		}

		c.JSON(http.StatusOK, gin.H{
			"group":     group,
			"columns":   t.Columns(),
			"available": t.Available(),
			"state":     t.State(),
			"rows":      t.Apply(rows),
		})
	})
}
