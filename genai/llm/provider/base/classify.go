package base

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/viant/llmdispatch/genai/llm"
)

var invalidModelMarkers = []string{
	"model identifier is invalid",
	"on-demand throughput",
	"model_not_found",
	"does not exist",
	"unknown model",
	"model not found",
}

// IsInvalidModelMessage reports whether an upstream message names an unknown or unusable model.
func IsInvalidModelMessage(message string) bool {
	message = strings.ToLower(message)
	for _, marker := range invalidModelMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// IsTransport reports connection class failures: timeouts, resets, refused or unreachable endpoints.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "connection reset") || strings.Contains(message, "connection refused") ||
		strings.Contains(message, "no such host") || strings.Contains(message, "unexpected eof")
}

// ClassifyStatus maps an HTTP status and upstream message to an error kind.
func ClassifyStatus(status int, message string) llm.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.KindCredential
	case IsInvalidModelMessage(message), status == http.StatusNotFound:
		return llm.KindInvalidModel
	case status == http.StatusTooManyRequests, status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return llm.KindRateLimited
	case status == http.StatusRequestTimeout:
		return llm.KindTransientNetwork
	case status >= http.StatusInternalServerError:
		return llm.KindUnavailable
	}
	return llm.KindHandler
}

// Classify converts a transport or status failure into a classified error.
func Classify(provider, model string, status int, err error) *llm.Error {
	if err == nil {
		return nil
	}
	var classified *llm.Error
	if errors.As(err, &classified) {
		return classified
	}
	kind := llm.KindHandler
	if status != 0 {
		kind = ClassifyStatus(status, err.Error())
	} else if IsTransport(err) {
		kind = llm.KindTransientNetwork
	} else if IsInvalidModelMessage(err.Error()) {
		kind = llm.KindInvalidModel
	}
	return llm.Wrap(kind, err).WithProvider(provider).WithModel(model).WithStatus(status)
}
