package models

import "time"

// Certificate is the completion artifact issued once per (student, course).
// The composite unique index is what makes concurrent issuance safe: inserts go
// through ON CONFLICT DO NOTHING, so the losing writer sees a benign no-op.
type Certificate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"uniqueIndex:idx_certificates_student_course;not null" json:"student_id"`
	CourseID    uint      `gorm:"uniqueIndex:idx_certificates_student_course;not null" json:"course_id"`
	ReferenceID string    `gorm:"size:64;not null" json:"reference_id"`
	URL         string    `gorm:"size:512;not null" json:"url"`
	IssuedAt    time.Time `json:"issued_at"`
	CreatedAt   time.Time `json:"created_at"`
}
