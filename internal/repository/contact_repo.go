package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Tag      string
	ListID   *uint
	Page     int
	PageSize int
}

// ContactRepository defines data operations for CRM contacts and list membership.
type ContactRepository interface {
	GetByID(ctx context.Context, id uint) (models.Contact, error)
	GetByEmail(ctx context.Context, email string) (models.Contact, error)
	List(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error)
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, contact *models.Contact) error
	AddToList(ctx context.Context, contactID, listID uint) error
	RemoveFromList(ctx context.Context, contactID, listID uint) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository instantiates the repository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) GetByID(ctx context.Context, id uint) (models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return models.Contact{}, err
	}

	return contact, nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&contact).Error; err != nil {
		return models.Contact{}, err
	}

	return contact, nil
}

func (r *contactRepository) List(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Contact{})

	if filter.ListID != nil {
		query = query.
			Joins("JOIN contact_list_members ON contact_list_members.contact_id = contacts.id").
			Where("contact_list_members.list_id = ?", *filter.ListID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var contacts []models.Contact
	if err := query.
		Order("contacts.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&contacts).Error; err != nil {
		return nil, 0, err
	}

	// Tag membership lives in a JSON column, so filter in memory after paging.
	if filter.Tag != "" {
		filtered := contacts[:0]
		for _, contact := range contacts {
			for _, tag := range contact.TagSet() {
				if tag == filter.Tag {
					filtered = append(filtered, contact)
					break
				}
			}
		}
		contacts = filtered
	}

	return contacts, total, nil
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepository) Update(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

// AddToList inserts the membership row; re-adding an existing member is a no-op.
func (r *contactRepository) AddToList(ctx context.Context, contactID, listID uint) error {
	member := models.ContactListMember{ContactID: contactID, ListID: listID}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contact_id"}, {Name: "list_id"}},
		DoNothing: true,
	}).Create(&member).Error
}

func (r *contactRepository) RemoveFromList(ctx context.Context, contactID, listID uint) error {
	return r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Where("list_id = ?", listID).
		Delete(&models.ContactListMember{}).Error
}
