package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nicolagi/kvs/client"
	"github.com/nicolagi/kvs/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(server.New())
	defer ts.Close()
	c := client.New(client.WithAddress(strings.TrimPrefix(ts.URL, "http://")))
	runOutput := func(args ...string) (string, error) {
		var buf bytes.Buffer
		err := run(ctx, c, &buf, args)
		return buf.String(), err
	}

	out, err := runOutput("put", "k", `{"a":1}`)
	require.Nil(t, err)
	assert.Equal(t, "created\n", out)

	out, err = runOutput("get", "k")
	require.Nil(t, err)
	assert.Equal(t, "{\"a\":1}\n", out)

	out, err = runOutput("delete", "k")
	require.Nil(t, err)
	assert.Equal(t, "deleted\n", out)

	_, err = runOutput("get", "k")
	assert.True(t, errors.Is(err, client.ErrNotFound))

	_, err = runOutput("put", "k", "not json")
	assert.NotNil(t, err)

	for _, args := range [][]string{nil, {"get"}, {"put", "k"}, {"frobnicate", "k"}} {
		_, err = runOutput(args...)
		assert.True(t, errors.Is(err, errUsage), "%v", args)
	}
}
