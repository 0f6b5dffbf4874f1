package crm

import (
	"context"
	"testing"
	"time"

	"github.com/finstack/backend/internal/domain/crm"
	"github.com/finstack/backend/internal/infrastructure/cache"
	"github.com/finstack/backend/internal/infrastructure/persistence"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db      *gorm.DB
	clients *ClientService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ClientModel{},
		&models.ClientNoteModel{},
		&models.ClientDocumentModel{},
		&models.ClientInteractionModel{},
		&models.ClientTagModel{},
	)
	require.NoError(t, err)

	service := NewClientService(
		persistence.NewGormClientRepository(db),
		persistence.NewGormTransactionManager(db),
	)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	service.SetIdempotencyStore(store)

	return &testEnv{db: db, clients: service}
}

func newClient(t *testing.T, env *testEnv, tenantID uuid.UUID) *ClientResponse {
	t.Helper()

	resp, err := env.clients.Create(context.Background(), tenantID, CreateClientRequest{
		Name:   "Jordan Reeves",
		Email:  "jordan@example.com",
		Type:   crm.ClientTypePerson,
		Status: crm.ClientStatusLead,
	})
	require.NoError(t, err)
	return resp
}

func TestClientService_CreateOnboards(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)

	detail, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)

	labels := make([]string, 0, len(detail.Tags))
	for _, tag := range detail.Tags {
		labels = append(labels, tag.Label)
	}
	assert.ElementsMatch(t, []string{"type:PERSON", "status:LEAD"}, labels)

	require.Len(t, detail.Interactions, 1)
	assert.Equal(t, "SYSTEM", detail.Interactions[0].Kind)
	assert.Equal(t, "Welcome", detail.Interactions[0].Subject)

	assert.NotNil(t, detail.LastActivityDate)
	assert.NotNil(t, detail.LastContactDate)
}

func TestClientService_OnboardingRunsOnce(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	resp := newClient(t, env, tenantID)

	client, err := env.clients.clientRepo.FindByIDForTenant(ctx, tenantID, resp.ID)
	require.NoError(t, err)

	// A retried onboarding for the same client must be a no-op.
	require.NoError(t, env.clients.onboard(ctx, client))

	detail, err := env.clients.Get(ctx, tenantID, resp.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Tags, 2)
	assert.Len(t, detail.Interactions, 1)
}

func TestClientService_AddNoteTouchesActivity(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	before, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	require.NotNil(t, before.LastActivityDate)

	time.Sleep(5 * time.Millisecond)

	note, err := env.clients.AddNote(ctx, tenantID, client.ID, AddNoteRequest{Content: "Met at the expo"})
	require.NoError(t, err)
	assert.Equal(t, "Met at the expo", note.Content)

	after, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastActivityDate)
	assert.True(t, after.LastActivityDate.After(*before.LastActivityDate))
	// Notes are activity, not contact.
	assert.True(t, after.LastContactDate.Equal(*before.LastContactDate))
}

func TestClientService_RemoveNoteTouchesActivity(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	note, err := env.clients.AddNote(ctx, tenantID, client.ID, AddNoteRequest{Content: "temp"})
	require.NoError(t, err)

	before, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, env.clients.RemoveNote(ctx, tenantID, client.ID, note.ID))

	after, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Notes)
	assert.True(t, after.LastActivityDate.After(*before.LastActivityDate), "deletion counts as activity too")
}

func TestClientService_InteractionTouchesContact(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	before, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = env.clients.RecordInteraction(ctx, tenantID, client.ID, RecordInteractionRequest{
		Kind:    crm.InteractionKindCall,
		Subject: "Renewal call",
		Summary: "Discussed contract renewal",
	})
	require.NoError(t, err)

	after, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	assert.True(t, after.LastActivityDate.After(*before.LastActivityDate))
	assert.True(t, after.LastContactDate.After(*before.LastContactDate))
}

func TestClientService_AddDocumentTouchesActivity(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	before, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	doc, err := env.clients.AddDocument(ctx, tenantID, client.ID, AddDocumentRequest{
		Name:     "Contract draft",
		URL:      "https://files.example.com/contract.pdf",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Contract draft", doc.Name)

	after, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	assert.True(t, after.LastActivityDate.After(*before.LastActivityDate))
}

func TestClientService_AssignTagIsIdempotentPerLabel(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)

	first, err := env.clients.AssignTag(ctx, tenantID, client.ID, AssignTagRequest{Label: "vip"})
	require.NoError(t, err)
	second, err := env.clients.AssignTag(ctx, tenantID, client.ID, AssignTagRequest{Label: "vip"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	detail, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Tags, 3) // two onboarding tags plus vip
}

func TestClientService_RemoveTag(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)
	tag, err := env.clients.AssignTag(ctx, tenantID, client.ID, AssignTagRequest{Label: "churn-risk"})
	require.NoError(t, err)

	require.NoError(t, env.clients.RemoveTag(ctx, tenantID, client.ID, tag.ID))

	detail, err := env.clients.Get(ctx, tenantID, client.ID)
	require.NoError(t, err)
	for _, remaining := range detail.Tags {
		assert.NotEqual(t, "churn-risk", remaining.Label)
	}
}

func TestClientService_SetStatus(t *testing.T) {
	env := setupTest(t)
	tenantID := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantID)

	resp, err := env.clients.SetStatus(ctx, tenantID, client.ID, UpdateClientStatusRequest{Status: crm.ClientStatusActive})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", resp.Status)

	_, err = env.clients.SetStatus(ctx, tenantID, client.ID, UpdateClientStatusRequest{Status: "BOGUS"})
	assert.Error(t, err)
}

func TestClientService_TenantIsolation(t *testing.T) {
	env := setupTest(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	ctx := context.Background()

	client := newClient(t, env, tenantA)

	_, err := env.clients.Get(ctx, tenantB, client.ID)
	assert.Error(t, err)

	_, err = env.clients.AddNote(ctx, tenantB, client.ID, AddNoteRequest{Content: "cross-tenant"})
	assert.Error(t, err)
}
