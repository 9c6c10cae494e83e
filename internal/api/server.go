// Package api exposes the trackers, the directory and the email
// monitor over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/anigil002/trackerupdates/internal/directory"
	"github.com/anigil002/trackerupdates/internal/engine"
	"github.com/anigil002/trackerupdates/internal/llm"
	"github.com/anigil002/trackerupdates/internal/mailbox"
	"github.com/anigil002/trackerupdates/internal/tracker"
)

// aiKeyConfig is the directory config key holding the encrypted model
// API key.
const aiKeyConfig = "ai_api_key"

type Server struct {
	trackers *tracker.Store
	people   *directory.Store
	model    *llm.Client
	engine   *engine.Engine
	monitor  *mailbox.Monitor
	log      *slog.Logger
}

func NewServer(trackers *tracker.Store, people *directory.Store, model *llm.Client, eng *engine.Engine, monitor *mailbox.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		trackers: trackers,
		people:   people,
		model:    model,
		engine:   eng,
		monitor:  monitor,
		log:      logger,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	api := r.Group("/api")
	{
		api.GET("/system/status", s.systemStatus)
		api.POST("/system/start_monitoring", s.startMonitoring)
		api.POST("/system/stop_monitoring", s.stopMonitoring)
		api.GET("/email/activities", s.emailActivities)

		api.GET("/config/ai_key", s.getAIKey)
		api.POST("/config/ai_key", s.setAIKey)

		api.GET("/jobs", s.listJobs)
		api.POST("/jobs", s.addJobs)
		api.PUT("/jobs/:id", s.updateJob)

		api.GET("/cvs", s.listCVs)
		api.POST("/cvs", s.addCV)
		api.PUT("/cvs/:id", s.updateCV)

		api.GET("/hiring_managers", s.listHiringManagers)
		api.POST("/hiring_managers", s.addHiringManager)
		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.addProjects)
		api.GET("/candidates", s.listCandidates)
		api.POST("/candidates", s.addCandidate)
		api.POST("/candidates/bulk", s.addCandidatesBulk)

		api.POST("/ai/command", s.runCommand)
		api.GET("/analytics/summary", s.analyticsSummary)
		api.GET("/export/:tracker", s.exportTracker)
	}
	return r
}

func (s *Server) systemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email_monitoring":  s.monitor.Running(),
		"ai_configured":     s.model.Ready(),
		"pending_emails":    s.monitor.Pending(),
		"recent_activities": s.monitor.Activities().Recent(5),
	})
}

func (s *Server) startMonitoring(c *gin.Context) {
	if err := s.monitor.Start(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email_monitoring": true})
}

func (s *Server) stopMonitoring(c *gin.Context) {
	s.monitor.Stop()
	c.JSON(http.StatusOK, gin.H{"email_monitoring": false})
}

func (s *Server) emailActivities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activities": s.monitor.Activities().Recent(20)})
}

func (s *Server) getAIKey(c *gin.Context) {
	value, err := s.people.GetConfig(aiKeyConfig, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": value != ""})
}

// setAIKey stores the key encrypted at rest and brings the model client
// up with it. The key itself is never echoed back.
func (s *Server) setAIKey(c *gin.Context) {
	var body struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.model.Initialize(c.Request.Context(), body.APIKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.people.SetConfig(aiKeyConfig, body.APIKey, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("api.ai_key_updated")
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func (s *Server) runCommand(c *gin.Context) {
	var body struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := s.engine.Interpret(c.Request.Context(), body.Command)
	status := http.StatusOK
	if result.Err != "" {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
