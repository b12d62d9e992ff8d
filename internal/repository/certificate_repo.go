package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumora-hq/lumora-api/internal/models"
)

// CertificateRepository defines data operations for issued certificates.
type CertificateRepository interface {
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Certificate, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error)
	CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (bool, error)
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository instantiates the repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("course_id = ?", courseID).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}

	return certificate, nil
}

func (r *certificateRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("issued_at DESC").
		Find(&certificates).Error; err != nil {
		return nil, err
	}

	return certificates, nil
}

// CreateIfAbsent inserts the certificate unless one already exists for the
// (student, course) pair. The conflict rides on the unique index, so two
// concurrent issuers cannot both insert; the loser gets created=false.
func (r *certificateRepository) CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(certificate)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
