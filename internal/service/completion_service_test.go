package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/models"
)

type fakeCourseRepo struct {
	courses         map[uint]models.Course
	videos          []models.Video
	progress        map[uint]bool
	completedVideos int64
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[uint]models.Course{}, progress: map[uint]bool{}}
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r *fakeCourseRepo) ListVideos(ctx context.Context, courseID uint) ([]models.Video, error) {
	var videos []models.Video
	for _, video := range r.videos {
		if video.CourseID == courseID {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (r *fakeCourseRepo) GetVideo(ctx context.Context, id uint) (models.Video, error) {
	for _, video := range r.videos {
		if video.ID == id {
			return video, nil
		}
	}
	return models.Video{}, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) MarkVideoCompleted(ctx context.Context, studentID, videoID uint, at time.Time) error {
	r.progress[videoID] = true
	return nil
}

func (r *fakeCourseRepo) CountCompletedVideos(ctx context.Context, studentID uint, videoIDs []uint) (int64, error) {
	return r.completedVideos, nil
}

func (r *fakeCourseRepo) ListProgress(ctx context.Context, studentID uint, videoIDs []uint) ([]models.VideoProgress, error) {
	var rows []models.VideoProgress
	for _, videoID := range videoIDs {
		if r.progress[videoID] {
			rows = append(rows, models.VideoProgress{StudentID: studentID, VideoID: videoID, Completed: true})
		}
	}
	return rows, nil
}

type fakeCertificateRepo struct {
	existing *models.Certificate
	created  []models.Certificate
	loseRace bool
}

func (r *fakeCertificateRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Certificate, error) {
	if r.existing != nil {
		return *r.existing, nil
	}
	return models.Certificate{}, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error) {
	return r.created, nil
}

func (r *fakeCertificateRepo) CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (bool, error) {
	if r.loseRace {
		winner := models.Certificate{StudentID: certificate.StudentID, CourseID: certificate.CourseID, URL: "https://cdn.example.com/winner.png"}
		r.existing = &winner
		return false, nil
	}
	certificate.ID = uint(len(r.created) + 1)
	r.created = append(r.created, *certificate)
	stored := r.created[len(r.created)-1]
	r.existing = &stored
	return true, nil
}

type fakeStudentRepo struct {
	students map[uint]models.Student
}

func (r *fakeStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

type fakeRenderer struct {
	url   string
	err   error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, studentName, courseTitle string, issuedAt time.Time) (string, error) {
	f.calls++
	return f.url, f.err
}

type recordingNotifications struct {
	published []dto.NotificationCreateRequest
}

func (r *recordingNotifications) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	r.published = append(r.published, payload)
	return dto.NotificationResponse{}, nil
}

func (r *recordingNotifications) List(ctx context.Context, audience string, limit, offset int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (r *recordingNotifications) MarkRead(ctx context.Context, id uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, nil
}

func certifyingCourseFixture() (*fakeCourseRepo, *fakeQuizRepo, *fakeCertificateRepo, *fakeStudentRepo, *fakeRenderer) {
	courseRepo := newFakeCourseRepo()
	courseRepo.courses[10] = models.Course{ID: 10, Title: "Go for Marketers", IsCertifying: true}
	courseRepo.videos = []models.Video{
		{ID: 1, CourseID: 10, Position: 1},
		{ID: 2, CourseID: 10, Position: 2},
	}
	courseRepo.completedVideos = 2

	quizRepo := newFakeQuizRepo()
	quizRepo.quizzes[1] = models.Quiz{ID: 1, CourseID: 10, PassingScore: 70}
	quizRepo.passed = 1

	certRepo := &fakeCertificateRepo{}
	studentRepo := &fakeStudentRepo{students: map[uint]models.Student{5: {ID: 5, Name: "Ada Lovelace"}}}
	renderer := &fakeRenderer{url: "https://cdn.example.com/cert.png"}

	return courseRepo, quizRepo, certRepo, studentRepo, renderer
}

func TestEvaluateIssuesCertificate(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	notifications := &recordingNotifications{}

	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, notifications, testLogger())

	resp, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.True(t, resp.Evaluated)
	require.True(t, resp.CertificateIssued)
	require.False(t, resp.AlreadyCertified)
	require.Equal(t, "https://cdn.example.com/cert.png", resp.CertificateURL)
	require.Equal(t, 1, renderer.calls)
	require.Len(t, certRepo.created, 1)
	require.NotEmpty(t, certRepo.created[0].ReferenceID)

	require.Len(t, notifications.published, 1)
	require.Equal(t, "certificate_issued", notifications.published[0].Type)
}

func TestEvaluateSecondCallReportsAlreadyCertified(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	first, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.True(t, first.CertificateIssued)

	second, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.False(t, second.CertificateIssued)
	require.True(t, second.AlreadyCertified)
	require.Equal(t, first.CertificateURL, second.CertificateURL)
	require.Equal(t, 1, renderer.calls)
	require.Len(t, certRepo.created, 1)
}

func TestEvaluateLosesInsertRace(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	certRepo.loseRace = true
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	resp, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.False(t, resp.CertificateIssued)
	require.True(t, resp.AlreadyCertified)
	require.Equal(t, "https://cdn.example.com/winner.png", resp.CertificateURL)
}

func TestEvaluateCriteriaNotMet(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	courseRepo.completedVideos = 1
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	resp, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.True(t, resp.Evaluated)
	require.False(t, resp.CertificateIssued)
	require.Equal(t, 1, resp.VideosCompleted)
	require.Equal(t, 2, resp.VideosTotal)
	require.Zero(t, renderer.calls)
}

func TestEvaluateNoCriteriaNoDetermination(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	courseRepo.videos = nil
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	resp, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.False(t, resp.Evaluated)
	require.False(t, resp.CertificateIssued)
	require.Zero(t, renderer.calls)
}

func TestEvaluateNonCertifyingCourse(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	course := courseRepo.courses[10]
	course.IsCertifying = false
	courseRepo.courses[10] = course
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	resp, err := svc.Evaluate(context.Background(), 10, 5)
	require.NoError(t, err)
	require.True(t, resp.Evaluated)
	require.Equal(t, 2, resp.VideosCompleted)
	require.False(t, resp.CertificateIssued)
	require.Zero(t, renderer.calls)
}

func TestEvaluateUnknownCourse(t *testing.T) {
	courseRepo, quizRepo, certRepo, studentRepo, renderer := certifyingCourseFixture()
	svc := NewCourseCompletionService(courseRepo, quizRepo, certRepo, studentRepo, renderer, nil, testLogger())

	_, err := svc.Evaluate(context.Background(), 99, 5)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
