package api

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/chashi-bhai/server/internal/agent/llm"
	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

type ChatHandler struct {
	chat    Chatter
	timeout time.Duration
}

func NewChatHandler(chat Chatter, timeout time.Duration) *ChatHandler {
	return &ChatHandler{chat: chat, timeout: timeout}
}

// Chat handles POST /chat. Pipeline failures still produce a well-formed
// response carrying the apology text.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errx.BadRequestMessage+": "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	ip := ClientIP(r)
	start := time.Now()
	resp, err := h.chat.Invoke(ctx, model.ChatInput{
		UserID:         UserID(ip),
		ClientIP:       ip,
		Message:        req.Message,
		ManualLocation: req.Location,
	})
	if err != nil {
		logx.Error().
			Err(errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)).
			Bool("timeout", errors.Is(err, context.DeadlineExceeded)).
			Str("request_id", GetRequestID(r.Context())).
			Msg("Chat pipeline failed")
		resp = apologyResponse(time.Since(start))
	}
	writeJSON(w, http.StatusOK, resp)
}

func apologyResponse(elapsed time.Duration) *model.ChatResponse {
	return &model.ChatResponse{
		Reply:         llm.ApologyText,
		DetectedLang:  "en",
		UserLocation:  "Location not detected",
		NASADataUsed:  []string{},
		PerformanceMs: elapsed.Milliseconds(),
	}
}

// ClientIP is the peer address without its port. middleware.RealIP has
// already applied any proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// UserID derives the anonymous per-client id: the first 16 hex digits of
// the MD5 of the client address.
func UserID(ip string) string {
	sum := md5.Sum([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}
