package dto

import "time"

// VideoProgressRequest marks a video as watched for a student.
type VideoProgressRequest struct {
	VideoID   uint `json:"video_id" validate:"required"`
	StudentID uint `json:"student_id" validate:"required"`
}

// CompletionResponse summarises a course completion evaluation.
type CompletionResponse struct {
	CourseID          uint   `json:"course_id"`
	StudentID         uint   `json:"student_id"`
	Evaluated         bool   `json:"evaluated"`
	VideosCompleted   int    `json:"videos_completed"`
	VideosTotal       int    `json:"videos_total"`
	QuizzesPassed     int    `json:"quizzes_passed"`
	QuizzesTotal      int    `json:"quizzes_total"`
	CertificateIssued bool   `json:"certificate_issued"`
	AlreadyCertified  bool   `json:"already_certified"`
	CertificateURL    string `json:"certificate_url,omitempty"`
}

// VideoProgressView is one video's watch state for a student.
type VideoProgressView struct {
	VideoID     uint       `json:"video_id"`
	Title       string     `json:"title"`
	Position    int        `json:"position"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CourseProgressResponse lists a student's watch state across a course.
type CourseProgressResponse struct {
	CourseID  uint                `json:"course_id"`
	StudentID uint                `json:"student_id"`
	Videos    []VideoProgressView `json:"videos"`
}

// CertificateResponse is an issued certificate as returned by read endpoints.
type CertificateResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	CourseID    uint      `json:"course_id"`
	ReferenceID string    `json:"reference_id"`
	URL         string    `json:"url"`
	IssuedAt    time.Time `json:"issued_at"`
}
