package service

import "console-service/pkg/config"

// FeatureService exposes the feature flags governing registration and
// workspace creation. It is constructed from configuration and injected
// rather than read from process-wide state.
type FeatureService struct {
	cfg config.FeatureConfig
}

// NewFeatureService creates a feature service from configuration
func NewFeatureService(cfg config.FeatureConfig) *FeatureService {
	return &FeatureService{cfg: cfg}
}

// IsAllowRegister returns whether new accounts may self-register
func (s *FeatureService) IsAllowRegister() bool {
	return s.cfg.AllowRegister
}

// IsAllowCreateWorkspace returns whether accounts may create their own workspace
func (s *FeatureService) IsAllowCreateWorkspace() bool {
	return s.cfg.AllowCreateWorkspace
}

// IsBillingEnabled returns whether the billing service is wired up
func (s *FeatureService) IsBillingEnabled() bool {
	return s.cfg.BillingEnabled
}
