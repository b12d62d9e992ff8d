package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Contact is a CRM record targeted by marketing workflows. Custom fields set via
// update_field actions live in Fields; Tags holds a deduplicated string set.
type Contact struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Email     string            `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName string            `gorm:"size:128" json:"first_name"`
	LastName  string            `gorm:"size:128" json:"last_name"`
	Phone     string            `gorm:"size:64" json:"phone"`
	Tags      datatypes.JSON    `json:"tags"`
	Fields    datatypes.JSONMap `gorm:"type:json" json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TagSet decodes the stored tag list. A missing or malformed column reads as empty.
func (c Contact) TagSet() []string {
	if len(c.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(c.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags stores the given list as the contact's tag set.
func (c *Contact) SetTags(tags []string) error {
	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	c.Tags = datatypes.JSON(encoded)
	return nil
}

// ContactList is a named audience segment.
type ContactList struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContactListMember is a (contact, list) membership row.
type ContactListMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContactID uint      `gorm:"uniqueIndex:idx_list_members_contact_list;not null" json:"contact_id"`
	ListID    uint      `gorm:"uniqueIndex:idx_list_members_contact_list;not null" json:"list_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailTemplate is a stored message body with {placeholder} variables resolved at
// send time against the contact and triggering event context.
type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
