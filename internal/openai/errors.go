package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// UpstreamError carries a collaborator's non-success response. The gateway
// propagates Status and Body to the caller verbatim, with no retry.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// StatusOf maps an outbound call failure to the gateway response status:
// the upstream's own status verbatim, 504 for timeouts, 502 for any other
// transport-level failure.
func StatusOf(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// BodyOf returns the verbatim upstream body when the error carries one.
func BodyOf(err error) ([]byte, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Body, true
	}
	return nil, false
}
