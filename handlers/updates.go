package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/pkg/events"
	"github.com/hakikicode/SmartDesign/pkg/metrics"
	"github.com/hakikicode/SmartDesign/pkg/notify"
	"github.com/hakikicode/SmartDesign/repository"
	"github.com/hakikicode/SmartDesign/types"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type UpdatesHandler struct {
	repo             *repository.UpdatesRepository
	notifier         notify.Notifier
	maxMessageLength int
}

func NewUpdatesHandler(repo *repository.UpdatesRepository, maxMessageLength int) *UpdatesHandler {
	return &UpdatesHandler{repo: repo, notifier: notify.Nop{}, maxMessageLength: maxMessageLength}
}

func (h *UpdatesHandler) WithNotifier(n notify.Notifier) *UpdatesHandler {
	h.notifier = n
	return h
}

// POST /updates, POST /webhook
func (h *UpdatesHandler) Ingest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, "message", err.Error())
		return
	}
	msg := *req.Message
	if strings.TrimSpace(msg) == "" {
		h.reject(c, "message", "message must not be blank")
		return
	}
	if h.maxMessageLength > 0 && utf8.RuneCountInString(msg) > h.maxMessageLength {
		h.reject(c, "message", "message exceeds "+strconv.Itoa(h.maxMessageLength)+" characters")
		return
	}

	u, err := h.repo.Append(msg, models.OriginExternal, models.Kind(req.Kind), req.CorrelationID)
	if err != nil {
		metrics.IngestedTotal.WithLabelValues("error").Inc()
		if errors.Is(err, repository.ErrSequenceExhausted) {
			slog.Error("update log cannot accept more records", "err", err)
		}
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	metrics.IngestedTotal.WithLabelValues("accepted").Inc()
	h.notifier.Broadcast(events.NewUpdateAppended(u.ID))

	c.JSON(http.StatusOK, types.IngestResponse{ID: u.ID, CorrelationID: u.CorrelationID})
}

func (h *UpdatesHandler) reject(c *gin.Context, field, message string) {
	metrics.IngestedTotal.WithLabelValues("rejected").Inc()
	c.JSON(http.StatusBadRequest, types.NewErrorResponseWithDetails(
		types.ErrorCodeValidation, message, map[string]interface{}{"field": field},
	))
}

// GET /updates[?since=id]
func (h *UpdatesHandler) List(c *gin.Context) {
	var since int64
	mode := "full"
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "since must be an integer"))
			return
		}
		since = v
		mode = "since"
	}

	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues(mode))
	updates := h.repo.Since(since)
	timer.ObserveDuration()

	items := make([]types.UpdateItem, 0, len(updates))
	for _, u := range updates {
		items = append(items, types.NewUpdateItem(u))
	}
	c.JSON(http.StatusOK, items)
}
