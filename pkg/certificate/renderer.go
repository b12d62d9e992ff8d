package certificate

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Storage persists the rendered artifact and returns its public URL.
type Storage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// Renderer produces the completion certificate artifact for a (student, course)
// pair and stores it, returning the URL recorded on the certificate row.
type Renderer struct {
	storage Storage
	logger  zerolog.Logger
}

// NewRenderer constructs a certificate renderer.
func NewRenderer(storage Storage, logger zerolog.Logger) *Renderer {
	return &Renderer{
		storage: storage,
		logger:  logger.With().Str("component", "certificate_renderer").Logger(),
	}
}

// Render builds the certificate page and uploads it.
func (r *Renderer) Render(ctx context.Context, studentName, courseTitle string, issuedAt time.Time) (string, error) {
	if strings.TrimSpace(studentName) == "" || strings.TrimSpace(courseTitle) == "" {
		return "", fmt.Errorf("student name and course title must be provided")
	}

	page := buildPage(studentName, courseTitle, issuedAt)
	name := fmt.Sprintf("certificate-%s-%d.html", slug(studentName), issuedAt.Unix())

	url, err := r.storage.Upload(ctx, name, strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to store certificate: %w", err)
	}

	r.logger.Info().Str("student", studentName).Str("course", courseTitle).Msg("certificate rendered")

	return url, nil
}

func buildPage(studentName, courseTitle string, issuedAt time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<style>
		body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background: #F6F6F6; margin: 0; }
		.certificate { max-width: 720px; margin: 60px auto; background: #FFFFFF; border: 6px double #1B2A4A; padding: 60px; text-align: center; }
		.title { color: #1B2A4A; font-size: 32px; letter-spacing: 2px; margin-bottom: 8px; }
		.student { font-size: 28px; color: #1B2A4A; margin: 24px 0; border-bottom: 2px solid #C9A35B; display: inline-block; padding: 0 24px 8px; }
		.course { font-size: 20px; color: #444444; }
		.date { margin-top: 40px; font-size: 14px; color: #888888; }
	</style>
</head>
<body>
	<div class="certificate">
		<div class="title">CERTIFICATE OF COMPLETION</div>
		<p>This certifies that</p>
		<div class="student">%s</div>
		<p class="course">has successfully completed the course<br><strong>%s</strong></p>
		<div class="date">Issued on %s</div>
	</div>
</body>
</html>`, studentName, courseTitle, issuedAt.Format("January 2, 2006"))
}

func slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, value)
	return strings.Trim(value, "-")
}
