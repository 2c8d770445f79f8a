// Package server exposes the removal engine over HTTP: multipart upload,
// asynchronous job tracking, result download, and a health probe.
package server

import (
	"time"

	"github.com/gin-gonic/gin"

	watermark "github.com/jonatw/pdf-watermark-remove"
)

// Config holds the HTTP host configuration.
type Config struct {
	Host        string        `yaml:"server_host"`
	Port        int           `yaml:"server_port"`
	TempDir     string        `yaml:"temp_dir"`
	MaxFileSize int64         `yaml:"max_file_size"`
	JobTTL      time.Duration `yaml:"job_ttl"`
}

// NewDefaultConfig mirrors the historical deployment defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        5566,
		TempDir:     "data",
		MaxFileSize: 50 << 20,
		JobTTL:      time.Hour,
	}
}

// Server wires the engine, the document collaborator and the job store
// behind gin handlers.
type Server struct {
	cfg     *Config
	remover *watermark.Remover
	opener  watermark.Opener
	store   *Store
}

// New creates a Server. The caller owns the remover and opener.
func New(cfg *Config, remover *watermark.Remover, opener watermark.Opener) *Server {
	return &Server{
		cfg:     cfg,
		remover: remover,
		opener:  opener,
		store:   NewStore(cfg.JobTTL),
	}
}

// SetupRoutes registers the API routes on r and starts the job sweeper.
// The sweeper stops when stop is closed.
func (s *Server) SetupRoutes(r *gin.Engine, stop <-chan struct{}) {
	s.store.StartCleanup(time.Minute, stop)

	r.POST("/upload", s.handleUpload)
	r.GET("/job/:id", s.handleJobStatus)
	r.GET("/download/:id", s.handleDownload)
	r.GET("/health", s.handleHealth)
}
