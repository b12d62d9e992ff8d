package dto

import (
	"encoding/json"
	"time"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// QuizSubmissionRequest carries one graded submission of answers.
type QuizSubmissionRequest struct {
	QuizID    uint            `json:"quiz_id" validate:"required"`
	StudentID uint            `json:"student_id" validate:"required"`
	Answers   map[uint]string `json:"answers" validate:"required"`
}

// QuizAttemptResponse is the graded outcome returned to the caller. When the
// submission completed the course, certificate details ride along.
type QuizAttemptResponse struct {
	AttemptID         uint      `json:"attempt_id"`
	QuizID            uint      `json:"quiz_id"`
	StudentID         uint      `json:"student_id"`
	Score             int       `json:"score"`
	Passed            bool      `json:"passed"`
	CompletedAt       time.Time `json:"completed_at"`
	CertificateIssued bool      `json:"certificate_issued"`
	CertificateURL    string    `json:"certificate_url,omitempty"`
}

// QuizQuestionInput describes one question at quiz authoring time.
type QuizQuestionInput struct {
	Prompt        string   `json:"prompt" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=multiple_choice true_false short_answer"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Points        int      `json:"points" validate:"required,gt=0"`
}

// QuizCreateRequest creates a quiz with its question bank.
type QuizCreateRequest struct {
	CourseID     uint                `json:"course_id" validate:"required"`
	VideoID      *uint               `json:"video_id,omitempty"`
	Title        string              `json:"title" validate:"required"`
	PassingScore int                 `json:"passing_score" validate:"gte=0,lte=100"`
	Required     bool                `json:"required"`
	Questions    []QuizQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// QuizQuestionView is a question as shown to a student: no correct answer.
type QuizQuestionView struct {
	ID       uint     `json:"id"`
	Prompt   string   `json:"prompt"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Points   int      `json:"points"`
	Position int      `json:"position"`
}

// QuizResponse is the quiz representation returned by read endpoints.
type QuizResponse struct {
	ID           uint               `json:"id"`
	CourseID     uint               `json:"course_id"`
	VideoID      *uint              `json:"video_id,omitempty"`
	Title        string             `json:"title"`
	PassingScore int                `json:"passing_score"`
	Required     bool               `json:"required"`
	Questions    []QuizQuestionView `json:"questions"`
}

// NewQuizResponse maps a quiz model to its student-facing representation.
func NewQuizResponse(quiz models.Quiz) QuizResponse {
	questions := make([]QuizQuestionView, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions = append(questions, QuizQuestionView{
			ID:       question.ID,
			Prompt:   question.Prompt,
			Type:     question.Type,
			Options:  decodeOptions(question),
			Points:   question.Points,
			Position: question.Position,
		})
	}

	return QuizResponse{
		ID:           quiz.ID,
		CourseID:     quiz.CourseID,
		VideoID:      quiz.VideoID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		Required:     quiz.Required,
		Questions:    questions,
	}
}

func decodeOptions(question models.QuizQuestion) []string {
	if len(question.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(question.Options, &options); err != nil {
		return nil
	}
	return options
}
