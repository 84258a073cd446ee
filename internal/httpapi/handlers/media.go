package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/azuradaemon/hati/internal/ai"
	"github.com/azuradaemon/hati/internal/common"
	"github.com/gin-gonic/gin"
)

type ttsReq struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
}

// Speak relays streaming text-to-speech as SSE. Each event carries one
// base64 PCM16 block exactly as the upstream produced it; decoding is the
// client's job.
func (h *Handler) Speak(c *gin.Context) {
	var req ttsReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		common.Fail(c, http.StatusBadRequest, 10030, "text required")
		return
	}
	voice := req.Voice
	if voice == "" {
		voice = h.Cfg.TTSVoice
	}

	flusher, okf := c.Writer.(http.Flusher)
	if !okf {
		common.Fail(c, http.StatusInternalServerError, 50006, "streaming unsupported")
		return
	}

	ctx := c.Request.Context()
	chunks, errs := h.Speech.StreamSpeech(ctx, req.Text, voice)

	started := false
	writeEvent := func(payload any) {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
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

	for {
		// the error channel is only consulted once every received block is
		// forwarded, so an upstream failure cannot preempt audio already
		// relayed into the chunk buffer
		var errCh <-chan error
		if chunks == nil {
			errCh = errs
		}

		select {
		case ch, okc := <-chunks:
			if !okc {
				chunks = nil
				continue
			}
			writeEvent(gin.H{"audio": ch})

		case err, oke := <-errCh:
			if !oke {
				writeEvent(gin.H{"done": true})
				return
			}
			if err == nil {
				continue
			}
			if !started {
				log.Printf("[Speak] speech stream failed err=%v", err)
				common.Fail(c, http.StatusBadGateway, 50202, "speech synthesis failed")
			} else {
				writeEvent(gin.H{"error": err.Error()})
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

type generateImageReq struct {
	Prompt string `json:"prompt" binding:"required"`
	Size   string `json:"size"`
}

func (h *Handler) GenerateImage(c *gin.Context) {
	var req generateImageReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		common.Fail(c, http.StatusBadRequest, 10031, "prompt required")
		return
	}

	b64, err := h.Images.GenerateImage(c.Request.Context(), req.Prompt, req.Size)
	if err != nil {
		log.Printf("[GenerateImage] err=%v", err)
		common.Fail(c, http.StatusBadGateway, 50203, "image generation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"b64_json": b64})
}

type terminalReq struct {
	Command string `json:"command" binding:"required"`
}

const terminalSystemPrompt = "You are a Linux terminal simulator. The user sends shell commands " +
	"and you respond with exactly the output that command would produce on a typical Linux system. " +
	"Do not add explanations, markdown fences, or commentary. If a command would produce no output, " +
	"respond with an empty string."

// TerminalExecute simulates a shell by asking a small model for the
// command's output. Nothing is ever actually executed.
func (h *Handler) TerminalExecute(c *gin.Context) {
	var req terminalReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Command) == "" {
		common.Fail(c, http.StatusBadRequest, 10032, "command required")
		return
	}

	out, err := h.Terminal.Chat(c.Request.Context(), []ai.Message{
		{Role: "system", Content: terminalSystemPrompt},
		{Role: "user", Content: req.Command},
	})
	if err != nil {
		log.Printf("[TerminalExecute] err=%v", err)
		out = fmt.Sprintf("bash: %s: command failed", req.Command)
	}
	c.JSON(http.StatusOK, gin.H{"output": out})
}

type uploadReq struct {
	Filename string `json:"filename" binding:"required"`
	Content  string `json:"content" binding:"required"`
	MimeType string `json:"mimeType"`
}

// Upload accepts a base64 payload and echoes its metadata. Files are not
// retained server-side; the frontend keeps its own copy.
func (h *Handler) Upload(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10033, "filename and content required")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10034, "content is not valid base64")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filename":    req.Filename,
		"mimeType":    req.MimeType,
		"size":        len(raw),
		"uploaded_at": time.Now().UTC(),
	})
}
