package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/RoBiul-Hasan-Jisan/hudai/pkg/errors"
)

// remoteError accepts both error body shapes seen upstream: the
// {"error":{"code","message"}} envelope and a flat {"message"} object.
type remoteError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type remoteErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var remote remoteError
	if json.Unmarshal(bodyBytes, &remote) == nil {
		var detail remoteErrorDetail
		if len(remote.Error) > 0 && json.Unmarshal(remote.Error, &detail) == nil && detail.Message != "" {
			return mapRemoteError(resp.StatusCode, detail.Code, detail.Message, serviceName)
		}
		if remote.Message != "" {
			return mapRemoteError(resp.StatusCode, "", remote.Message, serviceName)
		}
	}

	if resp.StatusCode >= 500 {
		return apperrors.ServiceUnavailable(serviceName,
			fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(bodyBytes)))
	}
	return mapRemoteError(resp.StatusCode, "", http.StatusText(resp.StatusCode), serviceName)
}

func mapRemoteError(status int, code, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualifiedMsg,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status >= 500:
		return apperrors.ServiceUnavailable(serviceName,
			fmt.Errorf("status %d (%s): %s", status, code, message))
	default:
		if code == "" {
			code = http.StatusText(status)
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
