package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	appsync "github.com/AdX213/erli-sync/internal/application/sync"
	syncdomain "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/scheduler"
	"github.com/AdX213/erli-sync/internal/interfaces/http/dto"
)

// ProductSyncer runs the outbound catalog push
type ProductSyncer interface {
	PrepareLinks(ctx context.Context) (int, error)
	SyncPending(ctx context.Context) (*appsync.ProductRunStats, error)
	SyncAll(ctx context.Context) (*appsync.ProductRunStats, error)
}

// InboxProcessor drains the marketplace inbox
type InboxProcessor interface {
	ProcessInbox(ctx context.Context) (*appsync.InboxStats, error)
}

// JobStatusProvider reports on the background schedule
type JobStatusProvider interface {
	Status() []scheduler.JobView
}

// SyncHandler exposes the synchronization runs over HTTP so an external cron
// or an operator can trigger them
type SyncHandler struct {
	BaseHandler
	products ProductSyncer
	inbox    InboxProcessor
	jobs     JobStatusProvider
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(products ProductSyncer, inbox InboxProcessor, jobs JobStatusProvider) *SyncHandler {
	return &SyncHandler{
		products: products,
		inbox:    inbox,
		jobs:     jobs,
	}
}

// PrepareLinksResponse reports how many link rows a prepare run inserted
type PrepareLinksResponse struct {
	Added int `json:"added"`
}

// PrepareLinks creates missing link rows for every sellable catalog unit
func (h *SyncHandler) PrepareLinks(c *gin.Context) {
	added, err := h.products.PrepareLinks(c.Request.Context())
	if err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.Success(c, PrepareLinksResponse{Added: added})
}

// ProductRunResponse summarizes a product push run
type ProductRunResponse struct {
	Processed   int  `json:"processed"`
	Pushed      int  `json:"pushed"`
	Skipped     int  `json:"skipped"`
	Failed      int  `json:"failed"`
	RateLimited bool `json:"rate_limited"`
}

// SyncProducts pushes product links to the marketplace. By default only
// pending rows are sent; ?full=true walks every link row.
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var stats *appsync.ProductRunStats
	var err error
	if c.Query("full") == "true" || c.Query("full") == "1" {
		stats, err = h.products.SyncAll(ctx)
	} else {
		stats, err = h.products.SyncPending(ctx)
	}
	if err != nil {
		h.handleSyncError(c, err)
		return
	}

	h.Success(c, ProductRunResponse{
		Processed:   stats.Processed,
		Pushed:      stats.Pushed,
		Skipped:     stats.Skipped,
		Failed:      stats.Failed,
		RateLimited: stats.RateLimited,
	})
}

// InboxRunResponse summarizes an inbox processing run
type InboxRunResponse struct {
	Batches    int `json:"batches"`
	Events     int `json:"events"`
	Created    int `json:"created"`
	Ignored    int `json:"ignored"`
	Exceptions int `json:"exceptions"`
	Acked      int `json:"acked"`
}

// ProcessInbox drains queued marketplace events and imports new orders
func (h *SyncHandler) ProcessInbox(c *gin.Context) {
	stats, err := h.inbox.ProcessInbox(c.Request.Context())
	if err != nil {
		h.handleSyncError(c, err)
		return
	}

	h.Success(c, InboxRunResponse{
		Batches:    stats.Batches,
		Events:     stats.Events,
		Created:    stats.Created,
		Ignored:    stats.Ignored,
		Exceptions: stats.Exceptions,
		Acked:      stats.Acked,
	})
}

// JobStatusResponse describes one scheduled job
type JobStatusResponse struct {
	Name        string     `json:"name"`
	Interval    string     `json:"interval"`
	LastStatus  string     `json:"last_status,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Status reports the background job schedule and last run outcomes
func (h *SyncHandler) Status(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []JobStatusResponse{})
		return
	}

	views := h.jobs.Status()
	out := make([]JobStatusResponse, 0, len(views))
	for _, v := range views {
		item := JobStatusResponse{
			Name:     v.Name,
			Interval: v.Interval.String(),
		}
		if v.LastRun != nil {
			item.LastStatus = string(v.LastRun.Status)
			item.LastError = v.LastRun.Error
			startedAt := v.LastRun.StartedAt
			item.StartedAt = &startedAt
			item.CompletedAt = v.LastRun.CompletedAt
		}
		out = append(out, item)
	}
	h.Success(c, out)
}

// handleSyncError maps sync failures to HTTP error codes
func (h *SyncHandler) handleSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, syncdomain.ErrRateLimited):
		h.ErrorWithCode(c, dto.ErrCodeRateLimited, err.Error())
	case errors.Is(err, syncdomain.ErrTransport):
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, err.Error())
	case errors.Is(err, syncdomain.ErrRemoteNotFound):
		h.ErrorWithCode(c, dto.ErrCodeUpstream, err.Error())
	default:
		h.InternalError(c, err.Error())
	}
}

// RegisterRoutes registers sync routes on the given group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/products", h.SyncProducts)
		sync.POST("/products/prepare", h.PrepareLinks)
		sync.POST("/inbox", h.ProcessInbox)
		sync.GET("/status", h.Status)
	}
}
