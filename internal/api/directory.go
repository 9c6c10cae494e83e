package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anigil002/trackerupdates/internal/directory"
	"github.com/anigil002/trackerupdates/internal/models"
)

func (s *Server) listHiringManagers(c *gin.Context) {
	managers, err := s.people.HiringManagers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hiring_managers": managers})
}

func (s *Server) addHiringManager(c *gin.Context) {
	var body struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.people.AddHiringManager(body.Name, body.Email)
	if err != nil {
		c.JSON(directoryErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.people.Projects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// addProjects accepts {"name": "..."} or {"names": ["...", ...]}.
func (s *Server) addProjects(c *gin.Context) {
	var body struct {
		Name  string   `json:"name"`
		Names []string `json:"names"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	names := body.Names
	if body.Name != "" {
		names = append(names, body.Name)
	}
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no project names given"})
		return
	}

	var added []string
	var failed []gin.H
	for _, name := range names {
		id, err := s.people.AddProject(name)
		if err != nil {
			failed = append(failed, gin.H{"name": name, "error": err.Error()})
			continue
		}
		added = append(added, id)
	}
	c.JSON(http.StatusCreated, gin.H{"added": added, "failed": failed})
}

func (s *Server) listCandidates(c *gin.Context) {
	criteria := searchCriteria(c)
	var (
		candidates []models.Candidate
		err        error
	)
	if len(criteria) > 0 {
		candidates, err = s.people.SearchCandidates(criteria)
	} else {
		candidates, err = s.people.Candidates()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "count": len(candidates)})
}

func (s *Server) addCandidate(c *gin.Context) {
	var candidate models.Candidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if candidate.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate name is required"})
		return
	}
	id, err := s.people.AddCandidate(candidate)
	if err != nil {
		c.JSON(directoryErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) addCandidatesBulk(c *gin.Context) {
	var candidates []models.Candidate
	if err := c.ShouldBindJSON(&candidates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var added []string
	var failed []gin.H
	for i, candidate := range candidates {
		if candidate.Name == "" {
			failed = append(failed, gin.H{"index": i, "error": "candidate name is required"})
			continue
		}
		id, err := s.people.AddCandidate(candidate)
		if err != nil {
			failed = append(failed, gin.H{"index": i, "error": err.Error()})
			continue
		}
		added = append(added, id)
	}
	c.JSON(http.StatusCreated, gin.H{"added": added, "failed": failed})
}

func directoryErrorStatus(err error) int {
	if errors.Is(err, directory.ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
