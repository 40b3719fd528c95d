package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

// MessageResponse is the envelope used for plain status and error replies.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

// WriteJSON marshals the payload and writes it with the given status code.
// A marshalling failure results in a bare 500 response.
func WriteJSON(w http.ResponseWriter, payload any, statusCode int) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal response payload: %s", err)
		WriteResponseBytes(w, ContentType.JSON, []byte(`{"message":"Internal server error"}`), http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, payloadJson, statusCode)
}

func WriteMessage(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, MessageResponse{Message: message}, statusCode)
}
