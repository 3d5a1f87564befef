package service

import (
	"time"

	"console-service/internal/model"

	"gorm.io/gorm"
)

// InviteService resolves workspace invitation tokens during the OAuth
// callback. A token is valid when it exists, is unused and has not expired.
type InviteService struct {
	db *gorm.DB
}

// NewInviteService creates an invite service
func NewInviteService(db *gorm.DB) *InviteService {
	return &InviteService{db: db}
}

// IsValidInviteToken returns whether the token refers to a usable invitation
func (s *InviteService) IsValidInviteToken(token string) bool {
	return s.getUsable(token) != nil
}

// GetInvitationByToken returns the invitation for the token, or nil when the
// token is unknown, used or expired
func (s *InviteService) GetInvitationByToken(token string) *model.Invitation {
	return s.getUsable(token)
}

func (s *InviteService) getUsable(token string) *model.Invitation {
	if token == "" {
		return nil
	}

	var invitation model.Invitation
	err := s.db.Where("token = ? AND used = ?", token, false).First(&invitation).Error
	if err != nil {
		return nil
	}

	if !invitation.ExpiresAt.IsZero() && invitation.ExpiresAt.Before(time.Now()) {
		return nil
	}

	return &invitation
}
