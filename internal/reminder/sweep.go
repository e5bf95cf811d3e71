package reminder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwelllabs/mydiary/internal/users"
)

var (
	errMissingUserService = errors.New("user service is required")
	errMissingPusher      = errors.New("pusher is required")
	noOpLogger            = zap.NewNop()
)

// Pusher dispatches a reminder notification to one stored push subscription.
type Pusher interface {
	Push(ctx context.Context, subscriptionJSON string) error
}

// SweepConfig describes the dependencies of the reminder sweep.
type SweepConfig struct {
	Users  *users.Service
	Pusher Pusher
	Logger *zap.Logger
}

// Sweep reads every opted-in user and dispatches a reminder to each.
type Sweep struct {
	users  *users.Service
	pusher Pusher
	logger *zap.Logger
}

// Result summarizes one sweep run.
type Result struct {
	Targets int
	Sent    int
	Failed  int
}

// NewSweep constructs the reminder sweep.
func NewSweep(cfg SweepConfig) (*Sweep, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("reminder: %w", errMissingUserService)
	}
	if cfg.Pusher == nil {
		return nil, fmt.Errorf("reminder: %w", errMissingPusher)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Sweep{
		users:  cfg.Users,
		pusher: cfg.Pusher,
		logger: logger,
	}, nil
}

// Run performs one sweep. A store read failure aborts the run before any
// dispatch; a dispatch failure for one user is logged and the remaining users
// are still attempted.
func (s *Sweep) Run(ctx context.Context) (Result, error) {
	targets, err := s.users.ListReminderTargets(ctx)
	if err != nil {
		s.logger.Error("reminder sweep aborted", zap.Error(err))
		return Result{}, fmt.Errorf("reminder: list targets: %w", err)
	}

	result := Result{Targets: len(targets)}
	for _, target := range targets {
		if err := s.pusher.Push(ctx, target.PushSub); err != nil {
			result.Failed++
			s.logger.Warn("reminder dispatch failed",
				zap.String("email", target.Email),
				zap.Error(err))
			continue
		}
		result.Sent++
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("targets", result.Targets),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}
