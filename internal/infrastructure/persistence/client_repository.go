package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/finstack/backend/internal/domain/crm"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements crm.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForTenant finds a client by ID for a specific tenant
func (r *GormClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*crm.Client, error) {
	var model models.ClientModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the client row under a write lock inside the
// current transaction. Activity stamping serializes on this lock.
func (r *GormClientRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*crm.Client, error) {
	var model models.ClientModel
	if err := lockForUpdate(dbFromContext(ctx, r.db)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists clients for a tenant with filtering
func (r *GormClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter crm.ClientFilter) ([]crm.Client, error) {
	var clientModels []models.ClientModel
	query := dbFromContext(ctx, r.db).Model(&models.ClientModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, true)

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}
	clients := make([]crm.Client, len(clientModels))
	for i, model := range clientModels {
		clients[i] = *model.ToDomain()
	}
	return clients, nil
}

// CountForTenant counts clients for a tenant with filtering
func (r *GormClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter crm.ClientFilter) (int64, error) {
	var count int64
	query := dbFromContext(ctx, r.db).Model(&models.ClientModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *crm.Client) error {
	model := models.ClientModelFromDomain(client)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormClientRepository) SaveWithLock(ctx context.Context, client *crm.Client) error {
	model := models.ClientModelFromDomain(client)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", client.ID, client.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// DeleteForTenant deletes a client and its child records for a tenant
func (r *GormClientRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	result := db.Delete(&models.ClientModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	for _, child := range []any{
		&models.ClientNoteModel{},
		&models.ClientDocumentModel{},
		&models.ClientInteractionModel{},
		&models.ClientTagModel{},
	} {
		if err := db.Delete(child, "client_id = ?", id).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateActivityTimestamps writes only the activity columns, leaving the
// rest of the row untouched.
func (r *GormClientRepository) UpdateActivityTimestamps(ctx context.Context, id uuid.UUID, lastActivity time.Time, lastContact *time.Time) error {
	values := map[string]any{
		"last_activity_date": lastActivity,
		"updated_at":         time.Now(),
	}
	if lastContact != nil {
		values["last_contact_date"] = *lastContact
	}
	return dbFromContext(ctx, r.db).
		Model(&models.ClientModel{}).
		Where("id = ?", id).
		Updates(values).Error
}

// FindNotes lists a client's notes, newest first
func (r *GormClientRepository) FindNotes(ctx context.Context, clientID uuid.UUID) ([]crm.ClientNote, error) {
	var noteModels []models.ClientNoteModel
	if err := dbFromContext(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]crm.ClientNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// SaveNote creates or updates a note
func (r *GormClientRepository) SaveNote(ctx context.Context, note *crm.ClientNote) error {
	var model models.ClientNoteModel
	model.FromDomain(note)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// DeleteNote deletes a note belonging to a client
func (r *GormClientRepository) DeleteNote(ctx context.Context, id, clientID uuid.UUID) error {
	return r.deleteChild(ctx, &models.ClientNoteModel{}, id, clientID)
}

// FindDocuments lists a client's documents, newest first
func (r *GormClientRepository) FindDocuments(ctx context.Context, clientID uuid.UUID) ([]crm.ClientDocument, error) {
	var docModels []models.ClientDocumentModel
	if err := dbFromContext(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	docs := make([]crm.ClientDocument, len(docModels))
	for i, model := range docModels {
		docs[i] = *model.ToDomain()
	}
	return docs, nil
}

// SaveDocument creates or updates a document record
func (r *GormClientRepository) SaveDocument(ctx context.Context, doc *crm.ClientDocument) error {
	var model models.ClientDocumentModel
	model.FromDomain(doc)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// DeleteDocument deletes a document record belonging to a client
func (r *GormClientRepository) DeleteDocument(ctx context.Context, id, clientID uuid.UUID) error {
	return r.deleteChild(ctx, &models.ClientDocumentModel{}, id, clientID)
}

// FindInteractions lists a client's interactions, newest first
func (r *GormClientRepository) FindInteractions(ctx context.Context, clientID uuid.UUID) ([]crm.ClientInteraction, error) {
	var interactionModels []models.ClientInteractionModel
	if err := dbFromContext(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&interactionModels).Error; err != nil {
		return nil, err
	}
	interactions := make([]crm.ClientInteraction, len(interactionModels))
	for i, model := range interactionModels {
		interactions[i] = *model.ToDomain()
	}
	return interactions, nil
}

// SaveInteraction creates or updates an interaction
func (r *GormClientRepository) SaveInteraction(ctx context.Context, interaction *crm.ClientInteraction) error {
	var model models.ClientInteractionModel
	model.FromDomain(interaction)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// DeleteInteraction deletes an interaction belonging to a client
func (r *GormClientRepository) DeleteInteraction(ctx context.Context, id, clientID uuid.UUID) error {
	return r.deleteChild(ctx, &models.ClientInteractionModel{}, id, clientID)
}

// FindTags lists a client's tags in label order
func (r *GormClientRepository) FindTags(ctx context.Context, clientID uuid.UUID) ([]crm.ClientTag, error) {
	var tagModels []models.ClientTagModel
	if err := dbFromContext(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("label ASC").
		Find(&tagModels).Error; err != nil {
		return nil, err
	}
	tags := make([]crm.ClientTag, len(tagModels))
	for i, model := range tagModels {
		tags[i] = *model.ToDomain()
	}
	return tags, nil
}

// FindTagByLabel finds a client's tag by its label
func (r *GormClientRepository) FindTagByLabel(ctx context.Context, clientID uuid.UUID, label string) (*crm.ClientTag, error) {
	var model models.ClientTagModel
	if err := dbFromContext(ctx, r.db).
		Where("client_id = ? AND label = ?", clientID, label).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveTag creates or updates a tag
func (r *GormClientRepository) SaveTag(ctx context.Context, tag *crm.ClientTag) error {
	var model models.ClientTagModel
	model.FromDomain(tag)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// DeleteTag deletes a tag belonging to a client
func (r *GormClientRepository) DeleteTag(ctx context.Context, id, clientID uuid.UUID) error {
	return r.deleteChild(ctx, &models.ClientTagModel{}, id, clientID)
}

func (r *GormClientRepository) deleteChild(ctx context.Context, model any, id, clientID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Delete(model, "id = ? AND client_id = ?", id, clientID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormClientRepository) applyFilter(query *gorm.DB, filter crm.ClientFilter, paginate bool) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR email ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if paginate && filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query.Order("created_at DESC")
}

var _ crm.ClientRepository = (*GormClientRepository)(nil)
