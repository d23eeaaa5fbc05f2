package status

import (
	"net/http"
	"strconv"
	"time"

	"dipbot/internal/journal"
	"dipbot/internal/state"

	"github.com/gin-gonic/gin"
)

type Router struct {
	source   SnapshotSource
	journal  journal.Reader
	exchange string
	quote    string
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{source: cfg.Source, journal: cfg.Journal, exchange: cfg.Exchange, quote: cfg.Quote}
}

// Register mounts the read-only API under group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/state", r.handleState)
	if r.journal != nil {
		group.GET("/trades", r.handleTrades)
	}
}

type stateResponse struct {
	state.Document
	Exchange  string            `json:"exchange,omitempty"`
	Quote     string            `json:"quote,omitempty"`
	Prices    map[string]string `json:"prices"`
	Failures  map[string]string `json:"failures"`
	Cycle     int64             `json:"cycle"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (r *Router) handleState(c *gin.Context) {
	snap := r.source.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "state not loaded yet"})
		return
	}
	resp := stateResponse{
		Document:  state.NewDocument(snap.State),
		Exchange:  r.exchange,
		Quote:     r.quote,
		Prices:    make(map[string]string, len(snap.Prices)),
		Failures:  snap.Failures,
		Cycle:     snap.Cycle,
		UpdatedAt: snap.UpdatedAt,
	}
	for asset, p := range snap.Prices {
		resp.Prices[asset] = p.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) handleTrades(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	entries, err := r.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"trades": entries})
}
