package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5g-empower/empower-core/errors"
)

func TestPutGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "env.a.svc.1", []byte(`{"x":1}`)))

	data, err := s.Get(ctx, "env.a.svc.1")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))

	_, err = s.Get(ctx, "env.a.svc.2")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestListPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "env.a.svc.2", []byte("b")))
	require.NoError(t, s.Put(ctx, "env.a.svc.1", []byte("a")))
	require.NoError(t, s.Put(ctx, "prj.p.svc.1", []byte("c")))

	keys, err := s.List(ctx, "env.a.")
	require.NoError(t, err)
	assert.Equal(t, []string{"env.a.svc.1", "env.a.svc.2"}, keys)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
	assert.Equal(t, 2, s.Deletes())
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("abc")))
	data, err := s.Get(ctx, "k")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
