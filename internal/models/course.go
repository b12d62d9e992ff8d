package models

import "time"

// Course represents a published e-learning course.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	IsCertifying bool      `gorm:"not null;default:false" json:"is_certifying"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Videos       []Video   `json:"videos,omitempty"`
}

// Video is a single lesson video within a course.
type Video struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	URL       string    `gorm:"size:512" json:"url"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VideoProgress marks a video as watched by a student. One row per (student, video).
type VideoProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"uniqueIndex:idx_video_progress_student_video;not null" json:"student_id"`
	VideoID     uint       `gorm:"uniqueIndex:idx_video_progress_student_video;not null" json:"video_id"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
