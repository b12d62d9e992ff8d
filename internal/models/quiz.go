package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is a scored assessment attached to a course, optionally bound to one video.
// A nil VideoID means the quiz applies to the course as a whole.
type Quiz struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CourseID     uint           `gorm:"uniqueIndex:idx_quizzes_course_video;not null" json:"course_id"`
	VideoID      *uint          `gorm:"uniqueIndex:idx_quizzes_course_video" json:"video_id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	PassingScore int            `gorm:"not null;default:70" json:"passing_score"`
	Required     bool           `gorm:"not null;default:true" json:"required"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Questions    []QuizQuestion `json:"questions,omitempty"`
}

const (
	// QuestionTypeMultipleChoice offers an ordered list of options.
	QuestionTypeMultipleChoice = "multiple_choice"
	// QuestionTypeTrueFalse is a binary choice question.
	QuestionTypeTrueFalse = "true_false"
	// QuestionTypeShortAnswer expects a free-text answer compared verbatim.
	QuestionTypeShortAnswer = "short_answer"
)

// QuizQuestion belongs to exactly one quiz and carries its own point value.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	QuizID        uint           `gorm:"index;not null" json:"quiz_id"`
	Prompt        string         `gorm:"type:text;not null" json:"prompt"`
	Type          string         `gorm:"size:32;not null" json:"type"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer string         `gorm:"size:512;not null" json:"correct_answer,omitempty"`
	Points        int            `gorm:"not null;default:1" json:"points"`
	Position      int            `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// QuizAttempt records one graded submission. Attempts are insert-only; the raw
// answers are kept as a snapshot keyed by question id.
type QuizAttempt struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	QuizID      uint              `gorm:"index;not null" json:"quiz_id"`
	StudentID   uint              `gorm:"index;not null" json:"student_id"`
	Answers     datatypes.JSONMap `gorm:"type:json" json:"answers"`
	Score       int               `gorm:"not null" json:"score"`
	Passed      bool              `gorm:"not null" json:"passed"`
	CompletedAt time.Time         `json:"completed_at"`
	CreatedAt   time.Time         `json:"created_at"`
}
