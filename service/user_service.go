package service

import (
	"context"
	"fmt"

	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
	"go.uber.org/zap"
)

// UserService manages onboarding records.
type UserService struct {
	users    ports.UserStore
	eventPub ports.EventPublisher
	log      *zap.Logger

	requireKYC bool
}

// NewUserService creates a user service. When requireKYC is set, onboarding
// can only be completed after KYC approval.
func NewUserService(users ports.UserStore, eventPub ports.EventPublisher, log *zap.Logger, requireKYC bool) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, eventPub: eventPub, log: log, requireKYC: requireKYC}
}

// Me returns the record of the authenticated wallet.
func (s *UserService) Me(ctx context.Context, id core.Identity) (core.User, error) {
	return s.users.Get(ctx, id.WalletAddress)
}

// Create registers a wallet. created is false when the user already existed.
func (s *UserService) Create(ctx context.Context, walletAddress string) (user core.User, created bool, err error) {
	wallet, err := core.NormalizeAddress(walletAddress)
	if err != nil {
		return core.User{}, false, err
	}

	user, created, err = s.users.CreateIfAbsent(ctx, wallet)
	if err != nil {
		return core.User{}, false, fmt.Errorf("failed to create user: %w", err)
	}

	if created {
		publish(ctx, s.eventPub, s.log, ports.Event{
			Topic:         ports.TopicUserCreated,
			WalletAddress: user.WalletAddress,
		})
	}

	return user, created, nil
}

// SubmitKYC validates the form and approves the caller. Approval is a mock,
// every valid submission is accepted.
func (s *UserService) SubmitKYC(ctx context.Context, id core.Identity, form core.KYCForm) (core.User, error) {
	if issues := form.Validate(); issues != nil {
		return core.User{}, core.Validation("Input validation error", nil).WithDetails(issues)
	}

	user, err := s.users.ApproveKYC(ctx, id.WalletAddress)
	if err != nil {
		return core.User{}, err
	}

	publish(ctx, s.eventPub, s.log, ports.Event{
		Topic:         ports.TopicKYCApproved,
		WalletAddress: user.WalletAddress,
		SessionID:     id.SessionID,
		Attributes:    map[string]string{"country": form.Country},
	})

	return user, nil
}

// CompleteOnboarding marks onboarding as done for the caller.
func (s *UserService) CompleteOnboarding(ctx context.Context, id core.Identity) (core.User, error) {
	if s.requireKYC {
		user, err := s.users.Get(ctx, id.WalletAddress)
		if err != nil {
			return core.User{}, err
		}
		if user.KYCStatus != core.KYCApproved {
			return core.User{}, core.ErrKYCNotApproved
		}
	}

	user, err := s.users.CompleteOnboarding(ctx, id.WalletAddress)
	if err != nil {
		return core.User{}, err
	}

	publish(ctx, s.eventPub, s.log, ports.Event{
		Topic:         ports.TopicOnboardingCompleted,
		WalletAddress: user.WalletAddress,
		SessionID:     id.SessionID,
	})

	return user, nil
}
