// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checker   *eventprocessor.HealthChecker
	version   string
	startTime time.Time
}

// NewHealthHandler creates the probe handlers. A nil checker reports ready.
func NewHealthHandler(checker *eventprocessor.HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		version:   version,
		startTime: time.Now(),
	}
}

// Live returns 200 while the process is running, regardless of dependencies.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)
	respondSuccess(w, r, models.HealthResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  uptime,
	})
}

// Ready returns 200 when every registered component is healthy and 503 otherwise.
// Degraded components still count as ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  string(eventprocessor.HealthStatusHealthy),
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}

	ready := true
	if h.checker != nil {
		overall := h.checker.CheckAll(r.Context())
		ready = overall.Healthy
		resp.Status = string(overall.Status)
		resp.Components = make(map[string]models.ComponentStatus, len(overall.Components))
		for name, c := range overall.Components {
			msg := c.Message
			if c.Error != "" {
				msg = c.Error
			}
			resp.Components[name] = models.ComponentStatus{Healthy: c.Healthy, Message: msg}
		}
	}

	status, label := http.StatusOK, "ready"
	if !ready {
		status, label = http.StatusServiceUnavailable, "not_ready"
	}
	respondJSON(w, r, status, &models.APIResponse{Status: label, Data: resp})
}

// Component runs the check of one registered component. It returns 404 for
// an unknown name, 503 when the component is unhealthy and 200 otherwise.
func (h *HealthHandler) Component(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var names []string
	if h.checker != nil {
		names = h.checker.Names()
	}
	if !slices.Contains(names, name) {
		msg := fmt.Sprintf("unknown component %q; registered: %s", name, strings.Join(names, ", "))
		respondError(w, r, http.StatusNotFound, codeNotFound, msg, nil)
		return
	}

	health := h.checker.CheckComponent(r.Context(), name)
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, &models.APIResponse{Status: "success", Data: health})
}
