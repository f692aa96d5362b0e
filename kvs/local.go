package kvs

import (
	"context"
	"errors"
	"net/http"

	"github.com/nicolagi/kvs/storage"
	log "github.com/sirupsen/logrus"
)

// Local is the Handler of a canonical instance.
type Local struct {
	store     storage.Store
	validator Validator
}

var _ Handler = (*Local)(nil)

// NewLocal returns a Local serving from store. A non-positive maxKeyLength
// selects DefaultMaxKeyLength.
func NewLocal(store storage.Store, maxKeyLength int) *Local {
	return &Local{
		store:     store,
		validator: Validator{MaxKeyLength: maxKeyLength},
	}
}

func (l *Local) Put(_ context.Context, key string, body []byte) Reply {
	value, err := l.validator.ValidatePut(key, body)
	if err != nil {
		log.WithFields(log.Fields{
			"key": key,
			"err": err,
		}).Debug("Rejected put")
		return errorReply(err)
	}
	if l.store.Put(key, value) {
		return resultReply(http.StatusOK, resultReplaced, nil)
	}
	return resultReply(http.StatusCreated, resultCreated, nil)
}

func (l *Local) Get(_ context.Context, key string) Reply {
	value, err := l.store.Get(key)
	if err != nil {
		return errorReply(notFound(err))
	}
	return resultReply(http.StatusOK, resultFound, value)
}

func (l *Local) Delete(_ context.Context, key string) Reply {
	if err := l.store.Delete(key); err != nil {
		return errorReply(notFound(err))
	}
	return resultReply(http.StatusOK, resultDeleted, nil)
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}
