package dto

import (
	"time"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// ContactFilter narrows contact list queries.
type ContactFilter struct {
	Tag      string `json:"tag"`
	ListID   *uint  `json:"list_id"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"page_size" validate:"gte=0,lte=200"`
}

// ContactResponse is the API representation of a CRM contact.
type ContactResponse struct {
	ID        uint           `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     string         `json:"phone"`
	Tags      []string       `json:"tags"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewContactResponse maps a contact model to its API representation.
func NewContactResponse(contact models.Contact) ContactResponse {
	tags := contact.TagSet()
	if tags == nil {
		tags = []string{}
	}

	return ContactResponse{
		ID:        contact.ID,
		Email:     contact.Email,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Phone:     contact.Phone,
		Tags:      tags,
		Fields:    contact.Fields,
		CreatedAt: contact.CreatedAt,
	}
}

// NewContactResponseSlice maps a slice of contacts.
func NewContactResponseSlice(contacts []models.Contact) []ContactResponse {
	responses := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, NewContactResponse(contact))
	}
	return responses
}
