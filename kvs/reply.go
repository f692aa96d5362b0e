package kvs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Handler implements PUT, GET and DELETE on a single key.
type Handler interface {
	Put(ctx context.Context, key string, body []byte) Reply
	Get(ctx context.Context, key string) Reply
	Delete(ctx context.Context, key string) Reply
}

// Reply is the outcome of an operation, as it will be written to the client.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

const contentTypeJSON = "application/json"

const (
	resultCreated  = "created"
	resultReplaced = "replaced"
	resultFound    = "found"
	resultDeleted  = "deleted"
)

type resultPayload struct {
	Result string          `json:"result"`
	Value  json.RawMessage `json:"value,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func resultReply(status int, result string, value json.RawMessage) Reply {
	return jsonReply(status, resultPayload{Result: result, Value: value})
}

// errorReply maps an error to its status code and client-facing message.
func errorReply(err error) Reply {
	var status int
	var message string
	switch {
	case errors.Is(err, ErrKeyTooLong):
		status, message = http.StatusBadRequest, "Key is too long"
	case errors.Is(err, ErrMissingValue):
		status, message = http.StatusBadRequest, "PUT request does not specify a value"
	case errors.Is(err, ErrKeyNotFound):
		status, message = http.StatusNotFound, "Key does not exist"
	case errors.Is(err, ErrUpstreamUnreachable):
		status, message = http.StatusServiceUnavailable, "Cannot forward request"
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
	}
	return jsonReply(status, errorPayload{Error: message})
}

func jsonReply(status int, payload interface{}) Reply {
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithField("err", err).Error("Could not encode reply")
		return Reply{
			Status:      http.StatusInternalServerError,
			ContentType: contentTypeJSON,
			Body:        []byte(`{"error":"Internal server error"}`),
		}
	}
	return Reply{Status: status, ContentType: contentTypeJSON, Body: body}
}
