// Package scheduler provides background task scheduling services for the Parlons API.
package scheduler

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/pkg/logger"
)

// TempCleanupService removes leftover assembly workspaces from the temp
// directory. Assembly normally cleans up after itself; this sweeper catches
// what survives a crash or an interrupted request.
type TempCleanupService struct {
	// config holds the application configuration including the temp path
	config *config.Config
	// ticker controls the hourly execution schedule
	ticker *time.Ticker
	// done channel enables graceful shutdown signaling
	done chan bool
	// stopOnce ensures Stop() can only be called once, preventing double-stop race conditions
	stopOnce sync.Once
}

// NewTempCleanupService creates a new background service for temp directory cleanup.
// The service must be started with [TempCleanupService.Start] to begin operations.
func NewTempCleanupService(cfg *config.Config) *TempCleanupService {
	return &TempCleanupService{
		config: cfg,
		done:   make(chan bool),
	}
}

// Start begins the background cleanup service with immediate execution and hourly intervals.
// The service runs in a separate goroutine and can be stopped with [TempCleanupService.Stop].
func (s *TempCleanupService) Start() {
	logger.Info("Starting temp cleanup service (runs hourly)")

	// Run immediately on start
	s.cleanup()

	// Then run every hour
	s.ticker = time.NewTicker(1 * time.Hour)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.cleanup()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop gracefully shuts down the cleanup service.
// Uses sync.Once to prevent double-stop race conditions and a timeout to prevent deadlock.
func (s *TempCleanupService) Stop() {
	s.stopOnce.Do(func() {
		logger.Info("Stopping temp cleanup service")
		select {
		case s.done <- true:
		case <-time.After(5 * time.Second):
			logger.Info("Temp cleanup service shutdown timeout")
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
}

// cleanup removes temp entries older than 1 hour. The age threshold avoids
// racing with an assembly that is still writing.
func (s *TempCleanupService) cleanup() {
	tempDir := s.config.Audio.TempPath

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		logger.Error("Failed to read temp directory %s: %v", tempDir, err)
		return
	}

	cutoff := time.Now().Add(-1 * time.Hour)
	var removed int
	var bytesFreed int64

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		fullPath := filepath.Join(tempDir, entry.Name())
		size := dirSize(fullPath, info)

		if err := os.RemoveAll(fullPath); err != nil {
			logger.Error("Failed to remove stale temp entry %s: %v", fullPath, err)
			continue
		}

		removed++
		bytesFreed += size
	}

	if removed > 0 {
		logger.Info("Temp cleanup complete: %d stale entries removed (%.1f MB freed)",
			removed, float64(bytesFreed)/1024/1024)
	}
}

// dirSize returns the total size of a file or directory tree. Errors during
// the walk are ignored; the size is informational only.
func dirSize(path string, info os.FileInfo) int64 {
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	_ = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !fi.IsDir() {
			total += fi.Size()
		}
		return nil
	})
	return total
}
