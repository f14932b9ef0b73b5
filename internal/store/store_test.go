package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestJointIDIsDeterministic(t *testing.T) {
	require.Equal(t, JointID("a", "b"), JointID("a", "b"))
	require.NotEqual(t, JointID("a", "b"), JointID("b", "a"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestBeginWriteSerializesWriters(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginWrite(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		tx2, err := s.BeginWrite(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx2.Commit())
		close(done)
	}()

	require.NoError(t, tx.Commit())
	<-done
}
