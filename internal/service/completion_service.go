package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
	"github.com/lumora-hq/lumora-api/internal/observability"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// ErrCourseNotFound indicates the referenced course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// CertificateRenderer produces the completion artifact and returns its URL.
type CertificateRenderer interface {
	Render(ctx context.Context, studentName, courseTitle string, issuedAt time.Time) (string, error)
}

// CourseCompletionService checks completion criteria after each progress event
// and issues the course certificate exactly once.
type CourseCompletionService interface {
	Evaluate(ctx context.Context, courseID, studentID uint) (dto.CompletionResponse, error)
}

type courseCompletionService struct {
	courses       repository.CourseRepository
	quizzes       repository.QuizRepository
	certificates  repository.CertificateRepository
	students      repository.StudentRepository
	renderer      CertificateRenderer
	notifications NotificationService
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewCourseCompletionService constructs a CourseCompletionService instance.
// notifications may be nil; issuance then skips the admin notice.
func NewCourseCompletionService(
	courseRepo repository.CourseRepository,
	quizRepo repository.QuizRepository,
	certificateRepo repository.CertificateRepository,
	studentRepo repository.StudentRepository,
	renderer CertificateRenderer,
	notifications NotificationService,
	logger zerolog.Logger,
) CourseCompletionService {
	return &courseCompletionService{
		courses:       courseRepo,
		quizzes:       quizRepo,
		certificates:  certificateRepo,
		students:      studentRepo,
		renderer:      renderer,
		notifications: notifications,
		logger:        logger.With().Str("component", "completion_service").Logger(),
		tracer:        otel.Tracer("github.com/lumora-hq/lumora-api/internal/service/completion"),
		now:           time.Now,
	}
}

// Evaluate checks whether the student has watched every video and passed every
// quiz of the course. A course with no videos or no quizzes yields no
// completion determination. Certificate issuance is guarded by the unique
// (student, course) index, so concurrent evaluations cannot double-issue.
func (s *courseCompletionService) Evaluate(ctx context.Context, courseID, studentID uint) (dto.CompletionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.evaluate", trace.WithAttributes(
		attribute.Int("course.id", int(courseID)),
		attribute.Int("student.id", int(studentID)),
	))
	defer span.End()

	response := dto.CompletionResponse{CourseID: courseID, StudentID: studentID}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompletionResponse{}, ErrCourseNotFound
		}
		return dto.CompletionResponse{}, err
	}

	videos, err := s.courses.ListVideos(ctx, courseID)
	if err != nil {
		return dto.CompletionResponse{}, err
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CompletionResponse{}, err
	}

	response.VideosTotal = len(videos)
	response.QuizzesTotal = len(quizzes)

	// A course with no videos or no quizzes has no completion criteria to
	// satisfy; return without a determination rather than vacuously passing.
	if len(videos) == 0 || len(quizzes) == 0 {
		span.SetStatus(codes.Ok, "no completion criteria")
		return response, nil
	}

	videoIDs := make([]uint, 0, len(videos))
	for _, video := range videos {
		videoIDs = append(videoIDs, video.ID)
	}
	completedVideos, err := s.courses.CountCompletedVideos(ctx, studentID, videoIDs)
	if err != nil {
		return dto.CompletionResponse{}, err
	}
	response.VideosCompleted = int(completedVideos)

	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}
	passedQuizzes, err := s.quizzes.CountPassedQuizzes(ctx, studentID, quizIDs)
	if err != nil {
		return dto.CompletionResponse{}, err
	}
	response.QuizzesPassed = int(passedQuizzes)

	response.Evaluated = true

	if int(completedVideos) != len(videos) || int(passedQuizzes) != len(quizzes) {
		span.SetStatus(codes.Ok, "criteria not met")
		return response, nil
	}

	if !course.IsCertifying {
		span.SetStatus(codes.Ok, "course not certifying")
		return response, nil
	}

	// Fast path: already issued. The insert below still tolerates the race
	// where two evaluators pass this check at once.
	if existing, err := s.certificates.GetByStudentAndCourse(ctx, studentID, courseID); err == nil {
		response.AlreadyCertified = true
		response.CertificateURL = existing.URL
		span.SetStatus(codes.Ok, "already certified")
		return response, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CompletionResponse{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.CompletionResponse{}, fmt.Errorf("failed to load student profile: %w", err)
	}

	issuedAt := s.now()
	url, err := s.renderer.Render(ctx, student.Name, course.Title, issuedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "certificate rendering failed")
		return dto.CompletionResponse{}, fmt.Errorf("failed to render certificate: %w", err)
	}

	certificate := models.Certificate{
		StudentID:   studentID,
		CourseID:    courseID,
		ReferenceID: uuid.NewString(),
		URL:         url,
		IssuedAt:    issuedAt,
	}

	created, err := s.certificates.CreateIfAbsent(ctx, &certificate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "certificate persistence failed")
		return dto.CompletionResponse{}, err
	}

	if !created {
		// Lost the race to a concurrent evaluation; surface the winner's row.
		existing, err := s.certificates.GetByStudentAndCourse(ctx, studentID, courseID)
		if err != nil {
			return dto.CompletionResponse{}, err
		}
		response.AlreadyCertified = true
		response.CertificateURL = existing.URL
		span.SetStatus(codes.Ok, "already certified")
		return response, nil
	}

	observability.CertificatesIssued().Inc()
	response.CertificateIssued = true
	response.CertificateURL = url

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("student_id", studentID).
		Str("reference_id", certificate.ReferenceID).
		Msg("certificate issued")

	if s.notifications != nil {
		_, notifyErr := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			Audience: models.NotificationAudienceAdmin,
			Type:     "certificate_issued",
			Message:  fmt.Sprintf("%s completed %s", student.Name, course.Title),
			Metadata: map[string]any{"course_id": courseID, "student_id": studentID},
		})
		if notifyErr != nil {
			s.logger.Warn().Err(notifyErr).Msg("certificate notification failed")
		}
	}

	span.SetStatus(codes.Ok, "certificate issued")

	return response, nil
}
