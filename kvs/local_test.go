package kvs_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/nicolagi/kvs/kvs"
	"github.com/nicolagi/kvs/storage"
	"github.com/stretchr/testify/assert"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	newLocal := func() (*kvs.Local, storage.Store) {
		store := storage.NewInMemoryStore()
		return kvs.NewLocal(store, 0), store
	}
	t.Run("put then get returns the value", func(t *testing.T) {
		local, _ := newLocal()
		assertReply(t, local.Put(ctx, "name", []byte(`{"value":{"first":"Glenda"}}`)), http.StatusCreated, `{"result":"created"}`)
		assertReply(t, local.Get(ctx, "name"), http.StatusOK, `{"result":"found","value":{"first":"Glenda"}}`)
	})
	t.Run("second put replaces", func(t *testing.T) {
		local, _ := newLocal()
		assertReply(t, local.Put(ctx, "k", []byte(`{"value":{"a":1}}`)), http.StatusCreated, `{"result":"created"}`)
		assertReply(t, local.Put(ctx, "k", []byte(`{"value":{"b":2}}`)), http.StatusOK, `{"result":"replaced"}`)
		assertReply(t, local.Get(ctx, "k"), http.StatusOK, `{"result":"found","value":{"b":2}}`)
	})
	t.Run("null is a value", func(t *testing.T) {
		local, _ := newLocal()
		assertReply(t, local.Put(ctx, "k", []byte(`{"value":null}`)), http.StatusCreated, `{"result":"created"}`)
		assertReply(t, local.Get(ctx, "k"), http.StatusOK, `{"result":"found","value":null}`)
	})
	t.Run("delete then get is not found", func(t *testing.T) {
		local, _ := newLocal()
		local.Put(ctx, "k", []byte(`{"value":1}`))
		assertReply(t, local.Delete(ctx, "k"), http.StatusOK, `{"result":"deleted"}`)
		assertReply(t, local.Get(ctx, "k"), http.StatusNotFound, `{"error":"Key does not exist"}`)
	})
	t.Run("get and delete of never inserted key", func(t *testing.T) {
		local, _ := newLocal()
		assertReply(t, local.Get(ctx, "nope"), http.StatusNotFound, `{"error":"Key does not exist"}`)
		assertReply(t, local.Delete(ctx, "nope"), http.StatusNotFound, `{"error":"Key does not exist"}`)
	})
	t.Run("long key is rejected and not stored", func(t *testing.T) {
		local, store := newLocal()
		key := strings.Repeat("x", 51)
		assertReply(t, local.Put(ctx, key, []byte(`{"value":1}`)), http.StatusBadRequest, `{"error":"Key is too long"}`)
		assertReply(t, local.Put(ctx, key, nil), http.StatusBadRequest, `{"error":"Key is too long"}`)
		assert.Equal(t, 0, store.Len())
	})
	t.Run("long keys are not validated on get and delete", func(t *testing.T) {
		local, _ := newLocal()
		key := strings.Repeat("x", 51)
		assertReply(t, local.Get(ctx, key), http.StatusNotFound, `{"error":"Key does not exist"}`)
		assertReply(t, local.Delete(ctx, key), http.StatusNotFound, `{"error":"Key does not exist"}`)
	})
	t.Run("missing value is rejected and not stored", func(t *testing.T) {
		local, store := newLocal()
		for _, body := range []string{``, `not json`, `{"key":"k"}`, `"value"`} {
			assertReply(t, local.Put(ctx, "k", []byte(body)), http.StatusBadRequest, `{"error":"PUT request does not specify a value"}`)
		}
		assert.Equal(t, 0, store.Len())
	})
}

func assertReply(t *testing.T, got kvs.Reply, status int, body string) {
	t.Helper()
	assert.Equal(t, status, got.Status)
	assert.Equal(t, "application/json", got.ContentType)
	assert.JSONEq(t, body, string(got.Body))
}
