package response

import (
	"encoding/json"
	"net/http"
)

// V1Response is the stable envelope returned by every endpoint. Result carries
// the payload on success; Messages carries the user-visible messages on error.
type V1Response struct {
	Result   interface{} `json:"result"`
	Messages []string    `json:"messages"`
}

// WriteResponse will write the result as a 200 response in the v1 envelope
func WriteResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(V1Response{
		Result:   result,
		Messages: []string{},
	})
}

// WriteError will write the structured Error in the v1 envelope with its status code
func WriteError(w http.ResponseWriter, r *http.Request, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	messages := e.Messages
	if len(messages) == 0 && e.Message != "" {
		messages = []string{e.Message}
	}
	json.NewEncoder(w).Encode(V1Response{
		Result:   e.Result,
		Messages: messages,
	})
}
