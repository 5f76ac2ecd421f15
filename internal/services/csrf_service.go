package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/you/cookbookauth/domain"
)

// CSRFServiceImpl implements domain.CSRFIssuer
type CSRFServiceImpl struct {
	sessionRepo domain.ServerSessionRepository
	tokens      domain.TokenGenerator
}

// NewCSRFService creates a new CSRF token issuer
func NewCSRFService(sessionRepo domain.ServerSessionRepository, tokens domain.TokenGenerator) domain.CSRFIssuer {
	return &CSRFServiceImpl{
		sessionRepo: sessionRepo,
		tokens:      tokens,
	}
}

// GetOrCreate implements domain.CSRFIssuer
func (s *CSRFServiceImpl) GetOrCreate(ctx context.Context, handle *domain.SessionHandle) (string, error) {
	if handle == nil || handle.Session == nil {
		return "", domain.ErrUnauthenticated
	}
	if handle.Session.CSRFToken != "" {
		return handle.Session.CSRFToken, nil
	}

	token, err := s.tokens.Generate(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	handle.Session.CSRFToken = token
	if err := s.sessionRepo.Save(ctx, handle.Session); err != nil {
		handle.Session.CSRFToken = ""
		return "", err
	}
	return token, nil
}

// Validate implements domain.CSRFIssuer
func (s *CSRFServiceImpl) Validate(handle *domain.SessionHandle, token string) error {
	if handle == nil || handle.Session == nil || handle.Session.CSRFToken == "" || token == "" {
		return domain.ErrCSRFMismatch
	}
	if subtle.ConstantTimeCompare([]byte(handle.Session.CSRFToken), []byte(token)) != 1 {
		return domain.ErrCSRFMismatch
	}
	return nil
}
