// Package api exposes the categorization engine over HTTP.
package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/database"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/domain"
	"github.com/clindocs/casenote-classifier/internal/processor"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Handler handles HTTP requests for the categorization API.
type Handler struct {
	pipeline   *processor.Pipeline
	batch      *processor.RateLimitedProcessor
	registry   *dictionary.Registry
	history    *database.HistoryRepository
	historyCfg config.HistoryConfig
	logger     Logger
}

// NewHandler creates a new API handler. The history repository may be
// nil when history is disabled.
func NewHandler(
	pipeline *processor.Pipeline,
	batch *processor.RateLimitedProcessor,
	registry *dictionary.Registry,
	history *database.HistoryRepository,
	historyCfg config.HistoryConfig,
	logger Logger,
) *Handler {
	return &Handler{
		pipeline:   pipeline,
		batch:      batch,
		registry:   registry,
		history:    history,
		historyCfg: historyCfg,
		logger:     logger,
	}
}

// filterFor resolves the per-request filter override against the
// deployment default.
func (h *Handler) filterFor(override *bool) bool {
	if override != nil {
		return *override
	}
	return h.pipeline.FilteringDefault()
}

// Categorize handles POST /api/v1/categorize.
func (h *Handler) Categorize(c *gin.Context) {
	var req CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid categorize request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := h.filterFor(req.Filter)
	h.logger.Debug("Categorizing entry",
		"entry_id", req.Entry.ID,
		"filter", filter,
		"domains", req.Domains,
	)

	var result *domain.EntryResult
	if len(req.Domains) > 0 {
		var ok bool
		result, ok = h.categorizeDomains(c, req.Entry, req.Domains, filter)
		if !ok {
			return
		}
	} else {
		start := time.Now()
		result = h.pipeline.CategorizeEntry(c.Request.Context(), req.Entry, filter)
		h.recordHistory(c, result, time.Since(start))
	}

	c.JSON(http.StatusOK, CategorizeResponse{Result: result})
}

// categorizeDomains restricts categorization to the named dictionaries.
// Unknown domain names reject the request.
func (h *Handler) categorizeDomains(
	c *gin.Context,
	entry *domain.NoteEntry,
	domains []string,
	filter bool,
) (*domain.EntryResult, bool) {
	result := &domain.EntryResult{Entry: entry}
	all := make(map[string]struct{})

	for _, key := range domains {
		set, ok := h.pipeline.KeywordSet(key)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown domain: " + key})
			return nil, false
		}
		labels := h.pipeline.Categorizer().Categorize(entry.Text, set, filter)
		if len(labels) == 0 {
			continue
		}
		if result.ByDomain == nil {
			result.ByDomain = make(map[string][]string)
		}
		result.ByDomain[key] = labels
		for _, label := range labels {
			all[label] = struct{}{}
		}
	}

	entry.Categories = entry.Categories[:0]
	for label := range all {
		entry.Categories = append(entry.Categories, label)
	}
	sort.Strings(entry.Categories)
	return result, true
}

// CategorizeBatch handles POST /api/v1/categorize/batch.
func (h *Handler) CategorizeBatch(c *gin.Context) {
	var req BatchCategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid batch categorize request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := h.filterFor(req.Filter)
	h.logger.Info("Batch categorizing entries",
		"batch_size", len(req.Entries),
		"filter", filter,
	)

	start := time.Now()
	results, err := h.batch.Process(c.Request.Context(), req.Entries, filter)
	if err != nil {
		h.logger.Error("Batch categorization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	matched := 0
	failed := 0
	for _, result := range results {
		switch {
		case result.Err != nil:
			failed++
		case len(result.ByDomain) > 0 || result.Incidents != nil:
			matched++
			h.recordHistory(c, result, time.Since(start)/time.Duration(len(results)))
		}
	}

	c.JSON(http.StatusOK, BatchCategorizeResponse{
		Results: results,
		Total:   len(results),
		Matched: matched,
		Failed:  failed,
	})
}

// Incidents handles POST /api/v1/incidents.
func (h *Handler) Incidents(c *gin.Context) {
	var req IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	labels := h.pipeline.Incidents().Categorize(req.Text)
	c.JSON(http.StatusOK, IncidentResponse{Labels: labels})
}

// IncidentContext handles POST /api/v1/incidents/context.
func (h *Handler) IncidentContext(c *gin.Context) {
	var req IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pipeline.Incidents().CategorizeWithContext(req.Text)
	c.JSON(http.StatusOK, IncidentContextResponse{Result: result})
}

// ListDictionaries handles GET /api/v1/dictionaries.
func (h *Handler) ListDictionaries(c *gin.Context) {
	summary := make([]DictionarySummary, 0)
	for _, key := range h.registry.Domains() {
		set, _ := h.registry.Keywords(key)
		summary = append(summary, DictionarySummary{
			Domain:     key,
			Categories: len(set.Categories),
		})
	}

	c.JSON(http.StatusOK, DictionariesResponse{
		Domains:   summary,
		Incidents: h.pipeline.Incidents().Labels(),
	})
}

// GetDictionary handles GET /api/v1/dictionaries/:domain.
func (h *Handler) GetDictionary(c *gin.Context) {
	key := c.Param("domain")
	set, ok := h.registry.Keywords(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain: " + key})
		return
	}
	c.JSON(http.StatusOK, set)
}

// GetHistory handles GET /api/v1/history.
func (h *Handler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}

	limit := h.historyCfg.DefaultLimit
	if param := c.Query("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, h.historyCfg.MaxLimit)
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

// GetStats handles GET /api/v1/stats.
func (h *Handler) GetStats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"domains": []gin.H{}})
		return
	}

	stats, err := h.history.DomainStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load domain stats", "error", err)
		// Empty stats rather than an error so dashboards keep rendering.
		c.JSON(http.StatusOK, gin.H{"domains": []gin.H{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"domains": stats})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "casenote-classifier",
	})
}

// ReadyCheck handles GET /ready. The service is ready once dictionaries
// are compiled; history is optional and reported but not gating.
func (h *Handler) ReadyCheck(c *gin.Context) {
	historyState := "disabled"
	if h.history != nil {
		historyState = "ok"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{
			"dictionaries": "ok",
			"history":      historyState,
		},
	})
}

// recordHistory persists a match outcome when history is enabled.
// Failures are logged, never surfaced to the caller.
func (h *Handler) recordHistory(c *gin.Context, result *domain.EntryResult, elapsed time.Duration) {
	if h.history == nil || !h.historyCfg.Enabled || result == nil || result.Entry == nil {
		return
	}
	if len(result.ByDomain) == 0 && result.Incidents == nil {
		return
	}

	ctx := c.Request.Context()
	ms := float64(elapsed.Microseconds()) / 1000.0

	for key, labels := range result.ByDomain {
		rec := &database.MatchRecord{
			EntryID:      result.Entry.ID,
			Domain:       key,
			Labels:       labels,
			Suppressed:   result.Suppressed,
			Source:       "api",
			ProcessingMs: ms,
		}
		if err := h.history.Record(ctx, rec); err != nil {
			h.logger.Error("Failed to record match history", "entry_id", result.Entry.ID, "error", err)
		}
	}
	if result.Incidents != nil {
		rec := &database.MatchRecord{
			EntryID:      result.Entry.ID,
			Domain:       "incidents",
			Labels:       result.Incidents.Labels,
			Context:      result.Incidents.Context,
			Source:       "api",
			ProcessingMs: ms,
		}
		if err := h.history.Record(ctx, rec); err != nil {
			h.logger.Error("Failed to record incident history", "entry_id", result.Entry.ID, "error", err)
		}
	}
}
