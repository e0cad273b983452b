package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/llmdispatch/genai/llm"
	"github.com/viant/llmdispatch/genai/llm/recovery"
	"github.com/viant/llmdispatch/genai/llm/retry"
	"github.com/viant/llmdispatch/internal/log"
)

// Handler owns one logical call: the request, its adapter and retry controller.
type Handler struct {
	ID         string
	request    llm.Request
	adapter    llm.Adapter
	controller *retry.Controller
	recovery   *recovery.Engine
	events     *log.Collector
	logger     *slog.Logger
}

// Request returns a copy of the handled request.
func (h *Handler) Request() llm.Request {
	return h.request
}

// Handle runs the call and returns raw text or recovered records.
func (h *Handler) Handle(ctx context.Context) (*llm.Result, error) {
	started := time.Now()
	h.publish(log.DispatchStart, &log.Dispatch{MaxTokens: h.request.Parameters.MaxTokens})
	result, err := h.handle(ctx)
	end := &log.Dispatch{Elapsed: time.Since(started).String()}
	if err != nil {
		end.Kind = string(llm.KindOf(err))
		end.Error = err.Error()
		h.logger.Warn("dispatch failed", "kind", end.Kind, "elapsed", end.Elapsed, "error", err)
	} else {
		end.Records = len(result.Records)
		h.logger.Debug("dispatch completed", "elapsed", end.Elapsed, "records", end.Records)
	}
	h.publish(log.DispatchEnd, end)
	return result, err
}

func (h *Handler) handle(ctx context.Context) (*llm.Result, error) {
	text, err := h.controller.Invoke(ctx, h.adapter, h.request.Prompt, h.request.Parameters)
	if err != nil {
		return nil, err
	}
	if h.request.RawText {
		return &llm.Result{Raw: true, Text: text}, nil
	}
	records, stage := h.recovery.Trace(text)
	h.publish(log.Recovery, &log.Dispatch{Stage: stage, Records: len(records)})
	if stage == "" {
		return nil, llm.NewError(llm.KindMalformed, "no recovery stage accepted the response").
			WithProvider(h.request.Type.String()).WithModel(h.request.Model)
	}
	return &llm.Result{Records: records}, nil
}

func (h *Handler) observe(attempt retry.Attempt) {
	h.publish(log.Attempt, &log.Dispatch{
		Attempt:   attempt.Number,
		MaxTokens: attempt.Parameters.MaxTokens,
		Kind:      string(llm.KindOf(attempt.Err)),
	})
	if attempt.Retry {
		h.publish(log.Retry, &log.Dispatch{
			Attempt: attempt.Number,
			Delay:   attempt.Delay.String(),
			Kind:    string(llm.KindOf(attempt.Err)),
			Error:   attempt.Err.Error(),
		})
	}
}

func (h *Handler) publish(eventType log.EventType, payload *log.Dispatch) {
	if h.events == nil {
		return
	}
	payload.RequestID = h.ID
	payload.Provider = h.request.Type.String()
	payload.Model = h.request.Model
	h.events.Publish(log.Event{EventType: eventType, Payload: payload})
}
