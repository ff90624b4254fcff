package account

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/password"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/phone"
)

// Dispatcher accepts lifecycle events for best-effort delivery.
type Dispatcher interface {
	Dispatch(ev notify.Event)
}

// LifecycleManager owns the INACTIVE -> ACTIVE account state machine.
type LifecycleManager struct {
	store      repo.Store
	hasher     password.Hasher
	phones     *phone.Normalizer
	dispatcher Dispatcher
	logger     *zap.SugaredLogger
}

func NewLifecycleManager(store repo.Store, hasher password.Hasher, phones *phone.Normalizer, dispatcher Dispatcher, logger *zap.SugaredLogger) *LifecycleManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LifecycleManager{store: store, hasher: hasher, phones: phones, dispatcher: dispatcher, logger: logger}
}

// Register creates an INACTIVE account with the USER role and queues the
// welcome email. It returns the stored email.
func (m *LifecycleManager) Register(ctx context.Context, in RegisterInput) (string, error) {
	verr := &apperr.ValidationError{}
	if err := in.Validate(); err != nil {
		var v *apperr.ValidationError
		if !errors.As(err, &v) {
			return "", err
		}
		verr.Merge(v)
	}
	var e164 string
	if _, bad := verr.Fields["phoneNumber"]; !bad {
		n, err := m.phones.Normalize(in.PhoneNumber)
		if err != nil {
			var v *apperr.ValidationError
			if !errors.As(err, &v) {
				return "", err
			}
			verr.Merge(v)
		}
		e164 = n
	}
	if len(verr.Fields) > 0 {
		return "", verr
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}
	a := &entity.Account{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  e164,
		Gender:       in.Gender,
		Major:        in.Major,
		AcademicYear: in.AcademicYear,
		Interests:    in.Interests,
		Status:       entity.StatusInactive,
		Roles:        []string{entity.RoleUser},
		PasswordHash: hash,
	}
	// The unique index decides duplicates; there is no pre-check.
	err = m.store.InTx(ctx, func(s repo.Store) error {
		return s.Insert(ctx, a)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			m.logger.Infow("registration rejected, email taken", "email", a.Email)
		}
		return "", err
	}
	m.logger.Infow("account registered", "account_id", a.ID, "email", a.Email)

	m.dispatcher.Dispatch(notify.NewEvent(notify.KindWelcome, a.ID, a.Email, a.FirstName, a.LastName))
	return a.Email, nil
}

// Activate moves the account to ACTIVE. Activating an ACTIVE account is a
// no-op that still succeeds and sends nothing.
func (m *LifecycleManager) Activate(ctx context.Context, id int64) (string, error) {
	var (
		activated *entity.Account
		email     string
	)
	err := m.store.InTx(ctx, func(s repo.Store) error {
		a, err := s.FindByID(ctx, id)
		if err != nil {
			return err
		}
		email = a.Email
		if !a.Activate() {
			return nil
		}
		if err := s.Update(ctx, a); err != nil {
			return err
		}
		activated = a
		return nil
	})
	if err != nil {
		return "", err
	}
	if activated == nil {
		m.logger.Infow("account already active", "account_id", id)
		return email, nil
	}
	m.logger.Infow("account activated", "account_id", id, "email", email)

	m.dispatcher.Dispatch(notify.NewEvent(notify.KindActivation, activated.ID, activated.Email, activated.FirstName, activated.LastName))
	return email, nil
}
