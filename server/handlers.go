package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	watermark "github.com/jonatw/pdf-watermark-remove"
	"github.com/jonatw/pdf-watermark-remove/logger"
)

func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are accepted"})
		return
	}
	if header.Size > s.cfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize)})
		return
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp directory"})
		return
	}

	safeName := sanitizeFilename(header.Filename)
	job := s.store.Create(safeName, "", "")
	inputPath := filepath.Join(s.cfg.TempDir, job.ID+"_"+safeName)
	outputPath := filepath.Join(s.cfg.TempDir, job.ID+"_out.pdf")
	s.store.Update(job.ID, func(j *Job) {
		j.inputPath = inputPath
		j.outputPath = outputPath
	})

	out, err := os.Create(inputPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}
	_, err = out.ReadFrom(file)
	out.Close()
	if err != nil {
		os.Remove(inputPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	go s.process(job.ID, inputPath, outputPath)

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "filename": header.Filename})
}

// process runs the engine on one uploaded file, mirroring progress
// events into the job record.
func (s *Server) process(jobID, inputPath, outputPath string) {
	s.store.Update(jobID, func(j *Job) {
		j.State = JobProcessing
		j.Status = "processing"
	})

	events := make(chan watermark.Event, 64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			s.store.Update(jobID, func(j *Job) {
				j.Status = ev.Status
				j.Progress = ev.Fraction
			})
		}
	}()

	outcome, err := s.remover.RemoveFile(context.Background(), s.opener, inputPath, outputPath, events)
	close(events)
	<-drained

	s.store.Update(jobID, func(j *Job) {
		if err != nil {
			j.State = JobFailed
			j.Status = "failed"
			j.Error = err.Error()
			return
		}
		j.State = JobCompleted
		j.Status = "completed"
		j.Progress = 1.0
		j.Outcome = outcome
	})
	if err != nil {
		logger.Error("job failed", "job", jobID, "err", err)
		return
	}
	logger.Info("job completed", "job", jobID, "watermark_removed", outcome)
}

func (s *Server) handleJobStatus(c *gin.Context) {
	job, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleDownload(c *gin.Context) {
	job, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	switch job.State {
	case JobCompleted:
	case JobFailed:
		c.JSON(http.StatusConflict, gin.H{"error": job.Error})
		return
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "job still processing"})
		return
	}
	if !job.Outcome {
		c.JSON(http.StatusNotFound, gin.H{"error": "no watermark was found in the document"})
		return
	}
	c.FileAttachment(job.outputPath, downloadName(job.Filename))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"jobs":   s.store.Len(),
	})
}

// sanitizeFilename strips path components and characters that could
// escape the temp directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	return name
}

func downloadName(original string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + "_no_watermark" + ext
}
