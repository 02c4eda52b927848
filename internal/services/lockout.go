package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
)

// LockoutPolicy throttles password guessing per account. The counter and
// the lock live on the user row and are only changed through the repository's
// atomic statements.
type LockoutPolicy struct {
	users     repository.UserRepository
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	threshold int
	duration  time.Duration
	now       func() time.Time
}

// NewLockoutPolicy creates a LockoutPolicy with the platform defaults.
func NewLockoutPolicy(users repository.UserRepository, m *metrics.Metrics, log logrus.FieldLogger) *LockoutPolicy {
	return &LockoutPolicy{
		users:     users,
		metrics:   m,
		log:       log,
		threshold: constants.MaxLoginAttempts,
		duration:  constants.LockDuration,
		now:       time.Now,
	}
}

// Check fails with AccountLockedError while the account's lock is running.
func (p *LockoutPolicy) Check(user *models.User) error {
	now := p.now()
	if !user.LockedAt(now) {
		return nil
	}
	return apierrors.NewAccountLocked(retryAfter(*user.LockedUntil, now))
}

// RecordFailure counts one rejected password and returns the remaining
// attempts before the account locks.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, user *models.User) (int, error) {
	now := p.now()
	updated, err := p.users.RecordLoginFailure(ctx, user.ID, p.threshold, now.Add(p.duration), now)
	if err != nil {
		return 0, wrap(err, "record login failure")
	}

	if updated.FailedAttemptCount == p.threshold && updated.LockedAt(now) {
		p.metrics.AccountLocksTotal.Inc()
		p.log.WithFields(logrus.Fields{
			"user_id":      updated.ID,
			"locked_until": updated.LockedUntil,
		}).Warn("Account locked after repeated login failures")
	}

	remaining := p.threshold - updated.FailedAttemptCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter after a successful login.
func (p *LockoutPolicy) Reset(ctx context.Context, user *models.User) error {
	if user.FailedAttemptCount == 0 && user.LockedUntil == nil {
		return nil
	}
	if err := p.users.ResetLoginFailures(ctx, user.ID); err != nil {
		return wrap(err, "reset login failures")
	}
	return nil
}

// retryAfter rounds the remaining lock time up to whole seconds.
func retryAfter(until, now time.Time) int {
	return int(math.Ceil(until.Sub(now).Seconds()))
}
