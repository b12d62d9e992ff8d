package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lumora-hq/lumora-api/internal/dto"
	"github.com/lumora-hq/lumora-api/internal/repository"
)

// CertificateService exposes read access to issued certificates.
type CertificateService interface {
	ListByStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error)
}

type certificateService struct {
	certificates repository.CertificateRepository
	logger       zerolog.Logger
}

// NewCertificateService constructs a CertificateService instance.
func NewCertificateService(certificateRepo repository.CertificateRepository, logger zerolog.Logger) CertificateService {
	return &certificateService{
		certificates: certificateRepo,
		logger:       logger.With().Str("component", "certificate_service").Logger(),
	}
}

func (s *certificateService) ListByStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		responses = append(responses, dto.CertificateResponse{
			ID:          certificate.ID,
			StudentID:   certificate.StudentID,
			CourseID:    certificate.CourseID,
			ReferenceID: certificate.ReferenceID,
			URL:         certificate.URL,
			IssuedAt:    certificate.IssuedAt,
		})
	}

	return responses, nil
}
