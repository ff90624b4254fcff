// Package notify fans lifecycle events out to email and the event bus without
// ever blocking or failing the lifecycle call that raised them.
package notify

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindWelcome    Kind = "WelcomeRequested"
	KindActivation Kind = "ActivationRequested"
)

// Event is raised by the lifecycle manager after a committed transition.
type Event struct {
	ID        string
	Kind      Kind
	AccountID int64
	Email     string
	FirstName string
	LastName  string
}

// NewEvent stamps a ksuid so every task of one event logs with the same id.
func NewEvent(kind Kind, accountID int64, email, firstName, lastName string) Event {
	return Event{
		ID:        utilities.NewKSUID(),
		Kind:      kind,
		AccountID: accountID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}
}

// Recipient is the addressee of a lifecycle email.
type Recipient struct {
	AccountID int64
	Email     string
	FirstName string
	LastName  string
}

func (e Event) Recipient() Recipient {
	return Recipient{AccountID: e.AccountID, Email: e.Email, FirstName: e.FirstName, LastName: e.LastName}
}

// ParticipantMessage is the payload published when an account becomes ACTIVE.
type ParticipantMessage struct {
	AccountID int64  `json:"accountId"`
	Email     string `json:"email"`
}

// Notifier sends lifecycle emails.
type Notifier interface {
	SendWelcome(ctx context.Context, to Recipient) error
	SendActivation(ctx context.Context, to Recipient) error
}

// Publisher emits lifecycle events on the message bus.
type Publisher interface {
	PublishActivated(ctx context.Context, msg ParticipantMessage) error
}
