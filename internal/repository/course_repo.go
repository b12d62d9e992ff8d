package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// CourseRepository defines data operations for courses, videos and watch progress.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	ListVideos(ctx context.Context, courseID uint) ([]models.Video, error)
	GetVideo(ctx context.Context, id uint) (models.Video, error)
	MarkVideoCompleted(ctx context.Context, studentID, videoID uint, at time.Time) error
	CountCompletedVideos(ctx context.Context, studentID uint, videoIDs []uint) (int64, error)
	ListProgress(ctx context.Context, studentID uint, videoIDs []uint) ([]models.VideoProgress, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) ListVideos(ctx context.Context, courseID uint) ([]models.Video, error) {
	var videos []models.Video
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&videos).Error; err != nil {
		return nil, err
	}

	return videos, nil
}

func (r *courseRepository) GetVideo(ctx context.Context, id uint) (models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return models.Video{}, err
	}

	return video, nil
}

// MarkVideoCompleted upserts the (student, video) progress row. Re-marking an
// already-watched video is a no-op refresh, never an error.
func (r *courseRepository) MarkVideoCompleted(ctx context.Context, studentID, videoID uint, at time.Time) error {
	progress := models.VideoProgress{
		StudentID:   studentID,
		VideoID:     videoID,
		Completed:   true,
		CompletedAt: &at,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "video_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"completed": true, "completed_at": at}),
	}).Create(&progress).Error
}

func (r *courseRepository) CountCompletedVideos(ctx context.Context, studentID uint, videoIDs []uint) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.VideoProgress{}).
		Where("student_id = ?", studentID).
		Where("video_id IN ?", videoIDs).
		Where("completed = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *courseRepository) ListProgress(ctx context.Context, studentID uint, videoIDs []uint) ([]models.VideoProgress, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	var rows []models.VideoProgress
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("video_id IN ?", videoIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
