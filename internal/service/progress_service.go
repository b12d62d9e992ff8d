package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// ErrVideoNotFound indicates the referenced video does not exist.
var ErrVideoNotFound = errors.New("video not found")

// VideoProgressService records watch progress and re-evaluates completion.
type VideoProgressService interface {
	MarkCompleted(ctx context.Context, req dto.VideoProgressRequest) (dto.CompletionResponse, error)
	ListProgress(ctx context.Context, courseID, studentID uint) (dto.CourseProgressResponse, error)
}

type videoProgressService struct {
	courses    repository.CourseRepository
	completion CourseCompletionService
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewVideoProgressService constructs a VideoProgressService instance.
func NewVideoProgressService(courseRepo repository.CourseRepository, completion CourseCompletionService, validate *validator.Validate, logger zerolog.Logger) VideoProgressService {
	return &videoProgressService{
		courses:    courseRepo,
		completion: completion,
		validator:  validate,
		logger:     logger.With().Str("component", "video_progress_service").Logger(),
		now:        time.Now,
	}
}

// MarkCompleted upserts the progress row and runs the completion evaluation,
// since the last outstanding video may just have been watched.
func (s *videoProgressService) MarkCompleted(ctx context.Context, req dto.VideoProgressRequest) (dto.CompletionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CompletionResponse{}, err
	}

	video, err := s.courses.GetVideo(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompletionResponse{}, ErrVideoNotFound
		}
		return dto.CompletionResponse{}, err
	}

	if err := s.courses.MarkVideoCompleted(ctx, req.StudentID, video.ID, s.now()); err != nil {
		return dto.CompletionResponse{}, err
	}

	s.logger.Info().Uint("video_id", video.ID).Uint("student_id", req.StudentID).Msg("video marked completed")

	return s.completion.Evaluate(ctx, video.CourseID, req.StudentID)
}

// ListProgress reports the student's watch state for every video in a course.
func (s *videoProgressService) ListProgress(ctx context.Context, courseID, studentID uint) (dto.CourseProgressResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseProgressResponse{}, ErrCourseNotFound
		}
		return dto.CourseProgressResponse{}, err
	}

	videos, err := s.courses.ListVideos(ctx, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	videoIDs := make([]uint, 0, len(videos))
	for _, video := range videos {
		videoIDs = append(videoIDs, video.ID)
	}

	rows, err := s.courses.ListProgress(ctx, studentID, videoIDs)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}
	completedAt := make(map[uint]*time.Time, len(rows))
	for _, row := range rows {
		if row.Completed {
			completedAt[row.VideoID] = row.CompletedAt
		}
	}

	response := dto.CourseProgressResponse{
		CourseID:  courseID,
		StudentID: studentID,
		Videos:    make([]dto.VideoProgressView, 0, len(videos)),
	}
	for _, video := range videos {
		at, completed := completedAt[video.ID]
		response.Videos = append(response.Videos, dto.VideoProgressView{
			VideoID:     video.ID,
			Title:       video.Title,
			Position:    video.Position,
			Completed:   completed,
			CompletedAt: at,
		})
	}

	return response, nil
}
