package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

// APIErrorBody is the error object servers return under "error".
type APIErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// APIResponse is the envelope most endpoints wrap their payload in.
type APIResponse[T any] struct {
	Success bool          `json:"success"`
	Data    T             `json:"data"`
	Error   *APIErrorBody `json:"error,omitempty"`
}

// HandleAPIResponse decodes the body of a successful response as T.
// An empty body yields the zero value.
func HandleAPIResponse[T any](resp httpclient.Response) (T, error) {
	var out T
	if resp == nil {
		return out, errors.New("nil response")
	}
	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode response body: %w", err)
	}
	return out, nil
}
