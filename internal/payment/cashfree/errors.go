package cashfree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GatewayError is a non-2xx response from Cashfree.
type GatewayError struct {
	Status  int
	Code    string
	Type    string
	Message string
	Body    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("cashfree: status %d: %s", e.Status, e.Message)
}

func newGatewayError(status int, body []byte) *GatewayError {
	e := &GatewayError{Status: status, Body: string(body)}
	var parsed struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		e.Message = parsed.Message
		e.Code = parsed.Code
		e.Type = parsed.Type
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return e
}
