// Package api exposes the interview service over HTTP: one JSON entry point
// dispatching on the request's action field.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"celerdev/interview"
	"celerdev/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxBodyBytes = 32 << 20

// requestError carries a caller-facing message and classifies as
// interview.ErrInvalidRequest.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return interview.ErrInvalidRequest }

func invalid(msg string) error {
	return &requestError{msg: msg}
}

type HandlerProps struct {
	Logger   *logger.LogMiddleware
	Service  *interview.Service
	Identity IdentityPolicy
}

type Handler struct {
	logger   *logger.LogMiddleware
	service  *interview.Service
	identity IdentityPolicy
}

func NewHandler(args HandlerProps) *Handler {
	return &Handler{logger: args.Logger, service: args.Service, identity: args.Identity}
}

// JSON writes a JSON response with the given status code. The body is
// encoded before any header goes out so an encoding failure can still
// become a 500.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func data(v interface{}) map[string]interface{} {
	return map[string]interface{}{"data": v}
}

func statusFor(err error) int {
	if errors.Is(err, interview.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ServeAction handles the single action entry point.
func (h *Handler) ServeAction(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "")
}

// ForceAction serves a path alias that always runs the given action.
func (h *Handler) ForceAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, action)
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, forced string) {
	ctx := r.Context()

	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if forced != "" {
		req.Action = forced
	}

	parsed, err := ParseAction(req, h.identity)
	if err != nil {
		h.logger.Logger(ctx).Info("[API] Rejected request", zap.String("action", req.Action), zap.Error(err))
		Error(w, statusFor(err), err.Error())
		return
	}
	if parsed.Fallback {
		h.logger.Logger(ctx).Warn("[API] Identifier missing, using default", zap.String("action", req.Action))
	}

	h.dispatch(ctx, w, parsed.Action)
}

// decodeRequest accepts both {"data": {...}} and a bare object.
func decodeRequest(body io.Reader) (Request, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return Request{}, fmt.Errorf("could not read request body: %w", err)
	}
	var req Request
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return req, fmt.Errorf("request body must be a JSON object")
	}
	if d := bytes.TrimSpace(envelope.Data); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
		raw = d
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("malformed request: %w", err)
	}
	return req, nil
}

func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, action Action) {
	tracer := otel.Tracer("api/dispatch")
	ctx, span := tracer.Start(ctx, "dispatch")
	defer span.End()

	span.SetAttributes(attribute.String("action", fmt.Sprintf("%T", action)))

	switch a := action.(type) {
	case GenerateInstruction:
		res, err := h.service.GenerateInstruction(ctx, a.Card)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(res))

	case RefineInstruction:
		res, err := h.service.RefineInstruction(ctx, a.Instruction)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string]string{"system_instruction": res.SystemInstruction}))

	case SyncProfile:
		if err := h.service.SyncProfile(ctx, a.UserID, a.Field, a.Blob); err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string]bool{"success": true}))

	case FetchProfile:
		blob, err := h.service.FetchProfile(ctx, a.UserID, a.Field)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string]interview.Profile{string(a.Field): blob}))

	case FetchHistory:
		turns, err := h.service.History(ctx, a.SessionID)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string][]interview.Turn{"history": turns}))

	case SynthesizeSpeech:
		audio, err := h.service.Synthesize(ctx, a.Text, a.Region, a.Gender, a.Speed)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)

	case CorrectTranscript:
		text, err := h.service.CorrectTranscript(ctx, a.Text)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string]string{"text": text}))

	case TranscribeAudio:
		text, err := h.service.Transcribe(ctx, a.Audio, a.MimeType, a.Correct)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}
		JSON(w, http.StatusOK, data(map[string]string{"text": text}))

	case Converse:
		out := h.service.Converse(ctx, a.Input)
		span.SetAttributes(attribute.Bool("degraded", out.Degraded), attribute.Bool("recorded", out.Recorded))
		JSON(w, http.StatusOK, data(map[string]string{"text": out.Text}))

	default:
		h.fail(ctx, w, invalid(fmt.Sprintf("Unsupported action %T", action)))
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Logger(ctx).Error("[API] Action failed", zap.Error(err))
	}
	Error(w, status, err.Error())
}
