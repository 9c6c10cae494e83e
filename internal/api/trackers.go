package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anigil002/trackerupdates/internal/models"
	"github.com/anigil002/trackerupdates/internal/tracker"
)

func (s *Server) listJobs(c *gin.Context) {
	criteria := searchCriteria(c)
	var jobs []models.Record
	if len(criteria) > 0 {
		jobs = s.trackers.SearchJobs(criteria)
	} else {
		jobs = s.trackers.Jobs()
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// addJobs accepts either a single job object or an array of them. The
// bulk form reports per-row outcomes instead of failing wholesale.
func (s *Server) addJobs(c *gin.Context) {
	records, err := bindRecords(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var added []string
	var failed []gin.H
	for i, rec := range records {
		id, err := s.trackers.AddJob(rec)
		if err != nil {
			failed = append(failed, gin.H{"index": i, "error": err.Error()})
			continue
		}
		added = append(added, id)
	}

	status := http.StatusCreated
	if len(added) == 0 && len(failed) > 0 {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"added": added, "failed": failed})
}

func (s *Server) updateJob(c *gin.Context) {
	rec, err := bindRecord(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.trackers.UpdateJob(c.Param("id"), rec); err != nil {
		c.JSON(trackerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *Server) listCVs(c *gin.Context) {
	criteria := searchCriteria(c)
	var cvs []models.Record
	if len(criteria) > 0 {
		cvs = s.trackers.SearchCVs(criteria)
	} else {
		cvs = s.trackers.CVs()
	}
	c.JSON(http.StatusOK, gin.H{"cvs": cvs, "count": len(cvs)})
}

func (s *Server) addCV(c *gin.Context) {
	rec, err := bindRecord(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.trackers.AddCV(rec)
	if err != nil {
		c.JSON(trackerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cv_id": id})
}

func (s *Server) updateCV(c *gin.Context) {
	rec, err := bindRecord(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.trackers.UpdateCV(c.Param("id"), rec); err != nil {
		c.JSON(trackerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("id")})
}

func (s *Server) analyticsSummary(c *gin.Context) {
	jobs := s.trackers.Jobs()
	cvs := s.trackers.CVs()

	jobsByStatus := map[string]int{}
	for _, job := range jobs {
		jobsByStatus[job[models.ColJobStatus]]++
	}
	cvsByStatus := map[string]int{}
	for _, cv := range cvs {
		cvsByStatus[cv[models.ColAppStatus]]++
	}

	c.JSON(http.StatusOK, gin.H{
		"total_jobs":           len(jobs),
		"open_jobs":            jobsByStatus[models.JobStatusOpen],
		"filled_jobs":          jobsByStatus[models.JobStatusFilled],
		"total_cvs":            len(cvs),
		"cvs_by_status":        cvsByStatus,
		"interviews_scheduled": cvsByStatus[models.CVStatusInterviewScheduled],
		"offers_extended":      cvsByStatus[models.CVStatusOfferExtended],
		"hired":                cvsByStatus[models.CVStatusHired],
	})
}

// exportTracker streams a workbook with a dated download name.
func (s *Server) exportTracker(c *gin.Context) {
	stamp := time.Now().Format("2006-01-02")
	switch c.Param("tracker") {
	case "master":
		c.FileAttachment(s.trackers.MasterPath(), fmt.Sprintf("MasterTracker_%s.xlsx", stamp))
	case "cv":
		c.FileAttachment(s.trackers.CVPath(), fmt.Sprintf("CVTracker_%s.xlsx", stamp))
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tracker, use master or cv"})
	}
}

// searchCriteria lifts query parameters into tracker search criteria.
// Parameter names are column names with spaces as underscores.
func searchCriteria(c *gin.Context) map[string]string {
	criteria := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 || values[0] == "" {
			continue
		}
		column := strings.ReplaceAll(key, "_", " ")
		criteria[column] = values[0]
	}
	return criteria
}

func bindRecord(c *gin.Context) (models.Record, error) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		return nil, err
	}
	return toRecord(raw), nil
}

// bindRecords accepts a single JSON object or an array of objects.
func bindRecords(c *gin.Context) ([]models.Record, error) {
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		records := make([]models.Record, 0, len(items))
		for _, item := range items {
			records = append(records, toRecord(item))
		}
		return records, nil
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return []models.Record{toRecord(item)}, nil
}

func toRecord(raw map[string]any) models.Record {
	rec := models.Record{}
	for key, value := range raw {
		if value == nil {
			continue
		}
		rec[key] = strings.TrimSpace(fmt.Sprint(value))
	}
	return rec
}

func trackerErrorStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrDuplicateJob):
		return http.StatusConflict
	case errors.Is(err, tracker.ErrInvalidJobID):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tracker.ErrJobNotFound), errors.Is(err, tracker.ErrCVNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
