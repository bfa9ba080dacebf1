package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/sfcloader/internal/hotreload"
	"github.com/conneroisu/sfcloader/internal/version"
)

func (s *DevServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "failed to encode response", "path", r.URL.Path)
	}
}

func (s *DevServer) handleClientScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(hotreload.ClientScript))
}

// handleHealth returns the server health status for health checks
func (s *DevServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "healthy"
	failing := len(s.LastErrors())
	if failing > 0 {
		status = "degraded"
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":     status,
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"components": s.registry.Count(),
		"failing":    failing,
		"clients":    s.ClientCount(),
	})
}

func (s *DevServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.registry.GetAll())
}

func (s *DevServer) handleComponent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/components/")
	component, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "Component not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, r, http.StatusOK, component)
}

// handleBuildMetrics returns build and cache metrics
func (s *DevServer) handleBuildMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := s.pipeline.GetMetrics()
	cache := s.pipeline.Cache().Stats()

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"build_metrics": map[string]interface{}{
			"total_builds":      metrics.TotalBuilds,
			"successful_builds": metrics.SuccessfulBuilds,
			"failed_builds":     metrics.FailedBuilds,
			"cache_hits":        metrics.CacheHits,
			"modules_written":   metrics.ModulesWritten,
			"errors":            metrics.Errors,
			"warnings":          metrics.Warnings,
			"success_rate":      metrics.SuccessRate(),
			"average_duration":  metrics.AverageDuration.String(),
			"total_duration":    metrics.TotalDuration.String(),
			"last_build":        metrics.LastBuild,
		},
		"cache_metrics": map[string]interface{}{
			"descriptors": cache.Descriptors,
			"modules":     cache.Modules,
			"hits":        cache.Hits,
			"misses":      cache.Misses,
			"hit_rate":    cache.HitRate(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// handleBuildErrors returns the errors of the latest failed builds
func (s *DevServer) handleBuildErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	errs := s.LastErrors()
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"errors":    errs,
		"count":     len(errs),
		"timestamp": time.Now().Unix(),
	})
}

// handleBuildCache reports or clears the build cache
func (s *DevServer) handleBuildCache(w http.ResponseWriter, r *http.Request) {
	cache := s.pipeline.Cache()

	switch r.Method {
	case http.MethodGet:
		stats := cache.Stats()
		s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"descriptors": stats.Descriptors,
			"modules":     stats.Modules,
			"hit_rate":    stats.HitRate(),
			"timestamp":   time.Now().Unix(),
		})

	case http.MethodDelete:
		cache.Purge()
		s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"message":   "Cache cleared successfully",
			"timestamp": time.Now().Unix(),
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *DevServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
