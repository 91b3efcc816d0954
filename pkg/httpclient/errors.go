package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

// DownstreamErrorResponse is the httputil.ErrorResponse body sent by sibling
// services on failure.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const maxErrorBody = 1 << 20

// ParseResponseError consumes and closes a non-2xx response body and returns
// an AppError carrying the downstream code and message when the body is
// structured. 5xx responses become BAD_GATEWAY.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.BadGateway(
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode), err)
	}

	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		return mapDownstreamError(resp.StatusCode, downstream.Error.Code, downstream.Error.Message, serviceName)
	}

	msg := fmt.Sprintf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
	if resp.StatusCode >= 500 {
		return apperrors.BadGateway(msg, nil)
	}
	return &apperrors.AppError{Code: "DOWNSTREAM_ERROR", Message: msg, Status: resp.StatusCode}
}

func mapDownstreamError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return apperrors.BadGateway(fmt.Sprintf("%s (%d/%s)", qualified, status, code), nil)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
