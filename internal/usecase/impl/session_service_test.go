package impl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"prepwise/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture() (*sessionService, *memGateway) {
	gateway := newMemGateway()
	service := NewSessionService(testConfig(), gateway, testLogger()).(*sessionService)

	return service, gateway
}

func draftSession() *entity.InterviewSession {
	return &entity.InterviewSession{
		Settings: entity.InterviewSettings{
			Role:          "backend engineer",
			Level:         "senior",
			QuestionCount: 5,
			Language:      "en",
		},
		Questions: []entity.Question{
			{ID: "q1", Text: "Tell me about a race condition you debugged.", Answer: "..."},
		},
		CurrentQuestionIndex: 0,
	}
}

func TestSessionService_SaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	require.True(t, service.Save(ctx, identity, draftSession()))
	assert.True(t, gateway.volatile.has("interview_session_user-1"))
	assert.True(t, gateway.durable.has("interview_session_backup_user-1"))

	loaded := service.Load(ctx, identity)
	require.NotNil(t, loaded)
	assert.Equal(t, identity, loaded.OwnerIdentity)
	assert.Equal(t, entity.SchemaVersionCurrent, loaded.SchemaVersion)
	assert.Equal(t, draftSession().Settings, loaded.Settings)
	assert.Equal(t, draftSession().Questions, loaded.Questions)
	assert.False(t, loaded.LastUpdated.IsZero())
	assert.False(t, loaded.StartTime.IsZero())
}

func TestSessionService_SaveWithoutIdentity_IsNoop(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()

	assert.False(t, service.Save(ctx, entity.NoIdentity, draftSession()))

	keys, err := gateway.volatile.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSessionService_SaveToleratesTierFailures(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	// One healthy tier still counts as persisted.
	gateway.volatile.failWrite = true
	assert.True(t, service.Save(ctx, identity, draftSession()))

	// Both tiers down degrades to non-persistent operation, no panic.
	gateway.durable.failWrite = true
	assert.False(t, service.Save(ctx, identity, draftSession()))
}

func TestSessionService_Load_RepairsPrimaryFromBackup(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	require.True(t, service.Save(ctx, identity, draftSession()))
	require.NoError(t, gateway.volatile.Delete(ctx, "interview_session_user-1"))

	loaded := service.Load(ctx, identity)
	require.NotNil(t, loaded)
	assert.Equal(t, identity, loaded.OwnerIdentity)

	// Repair-on-read repopulated the primary key.
	assert.True(t, gateway.volatile.has("interview_session_user-1"))
}

func TestSessionService_Load_RejectsForeignOwner(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()

	require.True(t, service.Save(ctx, "user-a", draftSession()))

	// user-b somehow ends up with user-a's record under their own keys.
	payload, err := gateway.volatile.Read(ctx, "interview_session_user-a")
	require.NoError(t, err)
	gateway.volatile.put("interview_session_user-b", payload)
	gateway.durable.put("interview_session_backup_user-b", payload)

	assert.Nil(t, service.Load(ctx, "user-b"))

	// Rejection leaves no residual keys for that record.
	assert.False(t, gateway.volatile.has("interview_session_user-b"))
	assert.False(t, gateway.durable.has("interview_session_backup_user-b"))
}

func TestSessionService_Load_RejectsExpiredRecord(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	require.True(t, service.Save(ctx, identity, draftSession()))

	service.now = func() time.Time { return time.Now().Add(2*time.Hour + time.Minute) }

	assert.Nil(t, service.Load(ctx, identity))
	assert.False(t, gateway.volatile.has("interview_session_user-1"))
	assert.False(t, gateway.durable.has("interview_session_backup_user-1"))
}

func TestSessionService_Load_JustUnderTTLIsLoadable(t *testing.T) {
	ctx := context.Background()
	service, _ := newSessionFixture()
	identity := entity.Identity("user-1")

	require.True(t, service.Save(ctx, identity, draftSession()))

	service.now = func() time.Time { return time.Now().Add(2*time.Hour - time.Minute) }

	assert.NotNil(t, service.Load(ctx, identity))
}

func TestSessionService_Load_CorruptPayloadTreatedAsNoRecord(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	gateway.volatile.put("interview_session_user-1", []byte("{not json"))

	assert.Nil(t, service.Load(ctx, identity))
}

func TestSessionService_Load_UnknownSchemaVersionRejected(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	gateway.volatile.put("interview_session_user-1", []byte(`{"schemaVersion":"99","ownerIdentity":"user-1"}`))

	assert.Nil(t, service.Load(ctx, identity))
	assert.False(t, gateway.volatile.has("interview_session_user-1"))
}

func TestSessionService_Load_MigratesLegacyRecord(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	legacy := legacyRecord{
		SchemaVersion: entity.SchemaVersionLegacy,
		OwnerIdentity: identity,
		Settings: entity.InterviewSettings{
			Role:          "frontend engineer",
			Level:         "junior",
			QuestionCount: 3,
			Language:      "en",
		},
		Questions:            []entity.Question{{ID: "q1", Text: "What is a closure?"}},
		CurrentQuestionIndex: 0,
		LastUpdated:          time.Now(),
	}
	payload, err := json.Marshal(legacy)
	require.NoError(t, err)
	gateway.volatile.put("interview_session_user-1", payload)

	loaded := service.Load(ctx, identity)
	require.NotNil(t, loaded)
	assert.Equal(t, entity.SchemaVersionCurrent, loaded.SchemaVersion)
	assert.False(t, loaded.IsCompleted)
	assert.Equal(t, legacy.LastUpdated.Unix(), loaded.StartTime.Unix())
}

func TestSessionService_LoadWithoutIdentity_ReturnsNil(t *testing.T) {
	service, _ := newSessionFixture()
	assert.Nil(t, service.Load(context.Background(), entity.NoIdentity))
}

func TestSessionService_Clear_RemovesBothTiers(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()
	identity := entity.Identity("user-1")

	require.True(t, service.Save(ctx, identity, draftSession()))
	service.Clear(ctx, identity)

	assert.False(t, gateway.volatile.has("interview_session_user-1"))
	assert.False(t, gateway.durable.has("interview_session_backup_user-1"))
}

func TestSessionService_Purge_SweepsMarkedKeysEverywhere(t *testing.T) {
	ctx := context.Background()
	service, gateway := newSessionFixture()

	require.True(t, service.Save(ctx, "user-a", draftSession()))
	gateway.volatile.put("speech_utterance_1", []byte("hello"))
	gateway.durable.put("legacy_voice_pref", []byte("alloy"))
	gateway.volatile.put("theme_preference", []byte("dark"))

	deleted := service.Purge(ctx)
	assert.Equal(t, 4, deleted)

	assert.True(t, gateway.volatile.has("theme_preference"))
	assert.False(t, gateway.volatile.has("interview_session_user-a"))
	assert.False(t, gateway.durable.has("interview_session_backup_user-a"))
}

func TestScopedKey(t *testing.T) {
	assert.Equal(t, "interview_session_user-1", scopedKey(sessionKeyName, "user-1"))
	assert.Equal(t, "interview_session_anonymous", scopedKey(sessionKeyName, entity.NoIdentity))
	assert.Equal(t, "interview_session_backup_user-1", scopedKey(backupKeyName, "user-1"))
}
