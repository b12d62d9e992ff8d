package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// QuizRepository defines data operations for quizzes, questions and attempts.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	LatestAttempt(ctx context.Context, studentID, quizID uint) (models.QuizAttempt, error)
	CountPassedQuizzes(ctx context.Context, studentID uint, quizIDs []uint) (int64, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) LatestAttempt(ctx context.Context, studentID, quizID uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("quiz_id = ?", quizID).
		Order("completed_at DESC").
		First(&attempt).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

// CountPassedQuizzes counts the distinct quizzes among quizIDs for which the
// student has at least one passing attempt.
func (r *quizRepository) CountPassedQuizzes(ctx context.Context, studentID uint, quizIDs []uint) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Distinct("quiz_id").
		Where("student_id = ?", studentID).
		Where("quiz_id IN ?", quizIDs).
		Where("passed = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
