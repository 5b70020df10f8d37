package blobstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"prepwise/internal/domain/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBlobTier_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	tier := NewVolatileTier(testLogger())

	_, err := tier.Read(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, tier.Write(ctx, "interview_session_u1", []byte(`{"a":1}`)))

	value, err := tier.Read(ctx, "interview_session_u1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, tier.Delete(ctx, "interview_session_u1"))
	_, err = tier.Read(ctx, "interview_session_u1")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, tier.Delete(ctx, "interview_session_u1"))
}

func TestDurableTier_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tier, err := NewDurableTier(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, tier.Write(ctx, "interview_session_backup_u1", []byte("payload")))
	require.NoError(t, tier.(io.Closer).Close())

	reopened, err := NewDurableTier(dir, testLogger())
	require.NoError(t, err)
	defer reopened.(io.Closer).Close()

	value, err := reopened.Read(ctx, "interview_session_backup_u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestGateway_PurgeMarked_SweepsBothTiers(t *testing.T) {
	ctx := context.Background()
	gw := NewWithTiers(NewVolatileTier(testLogger()), NewVolatileTier(testLogger()), testLogger())

	require.NoError(t, gw.Volatile().Write(ctx, "interview_session_u1", []byte("a")))
	require.NoError(t, gw.Volatile().Write(ctx, "speech_utterance_1", []byte("b")))
	require.NoError(t, gw.Volatile().Write(ctx, "theme_preference", []byte("dark")))
	require.NoError(t, gw.Durable().Write(ctx, "interview_session_backup_u1", []byte("c")))
	require.NoError(t, gw.Durable().Write(ctx, "voice_selection", []byte("d")))

	deleted := gw.PurgeMarked(ctx)
	assert.Equal(t, 4, deleted)

	// Unmarked keys survive the sweep.
	value, err := gw.Volatile().Read(ctx, "theme_preference")
	require.NoError(t, err)
	assert.Equal(t, []byte("dark"), value)

	for _, tier := range []storage.Tier{gw.Volatile(), gw.Durable()} {
		keys, err := tier.Keys(ctx)
		require.NoError(t, err)
		for _, key := range keys {
			assert.NotContains(t, key, "interview")
			assert.NotContains(t, key, "speech")
			assert.NotContains(t, key, "voice")
		}
	}
}

func TestGateway_RegisterMarker_ExtendsSweep(t *testing.T) {
	ctx := context.Background()
	gw := NewWithTiers(NewVolatileTier(testLogger()), NewVolatileTier(testLogger()), testLogger())

	require.NoError(t, gw.Volatile().Write(ctx, "transcript_draft", []byte("x")))
	assert.Equal(t, 0, gw.PurgeMarked(ctx))

	gw.RegisterMarker("transcript")
	gw.RegisterMarker("transcript") // duplicate registration is a no-op
	assert.Contains(t, gw.Markers(), "transcript")

	require.NoError(t, gw.Volatile().Write(ctx, "transcript_draft", []byte("x")))
	assert.Equal(t, 1, gw.PurgeMarked(ctx))
}

func TestGateway_MarkerMatchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	gw := NewWithTiers(NewVolatileTier(testLogger()), NewVolatileTier(testLogger()), testLogger())

	require.NoError(t, gw.Volatile().Write(ctx, "Interview_Legacy_Key", []byte("x")))
	assert.Equal(t, 1, gw.PurgeMarked(ctx))
}
