package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/azuradaemon/hati/internal/chat"
	"github.com/azuradaemon/hati/internal/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const streamLockTTL = 5 * time.Minute

func conversationIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid conversation id")
		return 0, false
	}
	return id, true
}

type createConversationReq struct {
	Title string `json:"title"`
}

func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationReq
	_ = c.ShouldBindJSON(&req) // allow empty {}; empty title gets a default

	conv, err := h.ChatSvc.CreateConversation(c.Request.Context(), req.Title)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) ListConversations(c *gin.Context) {
	convs, err := h.ChatSvc.ListConversations(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *Handler) GetConversation(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	conv, msgs, err := h.ChatSvc.GetConversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to fetch conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt,
		"messages":   msgs,
	})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	if err := h.ChatSvc.DeleteConversation(c.Request.Context(), id); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

type sendMessageReq struct {
	Content string `json:"content" binding:"required"`
}

// SendConversationMessage is the streaming relay endpoint: it persists the
// user message, forwards upstream deltas as SSE events in order, and seals
// the assistant message exactly once. SSE headers are written lazily so
// failures before the first event surface as plain HTTP statuses.
func (h *Handler) SendConversationMessage(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "content required")
		return
	}

	ctx := c.Request.Context()

	// one active stream per conversation
	if h.Redis != nil {
		acquired, err := h.Redis.AcquireStreamLock(ctx, id, streamLockTTL)
		if err != nil {
			log.Printf("[SendConversationMessage] stream lock unavailable conversation=%d err=%v", id, err)
		} else if !acquired {
			common.Fail(c, http.StatusConflict, 40901, "conversation is already streaming")
			return
		} else {
			defer func() {
				rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()
				_ = h.Redis.ReleaseStreamLock(rctx, id)
			}()
		}
	}

	flusher, okf := c.Writer.(http.Flusher)
	if !okf {
		common.Fail(c, http.StatusInternalServerError, 50006, "streaming unsupported")
		return
	}

	chunks, done, msgIDCh, errs := h.ChatSvc.SendMessageStream(ctx, id, req.Content)

	started := false
	writeEvent := func(payload any) {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
			c.Status(http.StatusOK)
			started = true
		}
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "data: {\"error\":\"encoding failed\"}\n\n")
			flusher.Flush()
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	// heartbeat keeps proxies from closing an idle stream
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		// terminal signals are only consulted once every forwarded chunk
		// is out, so neither a success nor an error can preempt the tail
		// of the stream (chunks closes before the buffered error or the
		// done value becomes the only thing left to read)
		var doneCh <-chan struct{}
		var errCh <-chan error
		if chunks == nil {
			doneCh = done
			errCh = errs
		}

		select {
		case ch, okc := <-chunks:
			if !okc {
				chunks = nil
				continue
			}
			writeEvent(gin.H{"content": ch})

		case err, oke := <-errCh:
			if !oke {
				errs = nil
				continue
			}
			if err == nil {
				continue
			}
			if !started {
				h.failStream(c, err)
			} else {
				writeEvent(gin.H{"error": publicStreamError(err)})
			}
			return

		case <-doneCh:
			var mid uint64
			select {
			case mid = <-msgIDCh:
			default:
			}
			writeEvent(gin.H{"done": true, "message_id": mid})
			return

		case <-ticker.C:
			if started {
				writeEvent(gin.H{"ping": time.Now().Unix()})
			}

		case <-ctx.Done():
			return
		}
	}
}

// failStream maps relay errors to HTTP statuses, usable only before any
// SSE output has been written.
func (h *Handler) failStream(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, 10003, "message content is empty")
	default:
		log.Printf("[SendConversationMessage] relay failed err=%v", err)
		common.Fail(c, http.StatusBadGateway, 50201, "completion failed")
	}
}

func publicStreamError(err error) string {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, chat.ErrEmptyMessage):
		return "message content is empty"
	default:
		return err.Error()
	}
}

// SendConversationMessageAsync queues an assistant reply job instead of
// streaming it; the worker picks it up from RabbitMQ.
func (h *Handler) SendConversationMessageAsync(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "content required")
		return
	}
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async pipeline unavailable")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, 10004, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	// user message lands immediately; the reply arrives out of band
	if err := h.ChatSvc.InsertUserMessage(c.Request.Context(), id, req.Content); err != nil {
		switch {
		case errors.Is(err, chat.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
		case errors.Is(err, chat.ErrEmptyMessage):
			common.Fail(c, http.StatusBadRequest, 10003, "message content is empty")
		default:
			log.Printf("[SendConversationMessageAsync] insert user message conversation=%d err=%v", id, err)
			common.Fail(c, http.StatusInternalServerError, 50007, "internal error")
		}
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		log.Printf("[SendConversationMessageAsync] ulid err=%v", err)
		common.Fail(c, http.StatusInternalServerError, 50007, "internal error")
		return
	}

	j := &chat.Job{
		ID:             jobID,
		ConversationID: id,
		Prompt:         req.Content,
		IdempotencyKey: idempoKeyPtr,
		Status:         chat.JobQueued,
	}

	job, created, err := h.ChatSvc.CreateJobOrGetExisting(c.Request.Context(), j)
	if err != nil {
		log.Printf("[SendConversationMessageAsync] create job conversation=%d err=%v", id, err)
		common.Fail(c, http.StatusInternalServerError, 50007, "internal error")
		return
	}

	if created {
		if err := h.Rabbit.PublishReplyJob(c.Request.Context(), job.ID, id); err != nil {
			log.Printf("[SendConversationMessageAsync] publish job=%s err=%v", job.ID, err)
			common.Fail(c, http.StatusInternalServerError, 50008, "enqueue failed")
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10005, "job_id required")
		return
	}
	j, err := h.ChatSvc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50007, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                j.ID,
		"conversation_id":   j.ConversationID,
		"status":            j.Status,
		"result_message_id": j.ResultMessageID,
		"error":             j.Error,
		"created_at":        j.CreatedAt,
		"updated_at":        j.UpdatedAt,
	})
}
