// Package registration orchestrates account creation: user persistence,
// activation record issuance, and the confirmation email, with
// compensating cleanup when a later step fails.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/mail"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ErrCompensationFailed marks the one state this workflow cannot clean up:
// a persisted user whose compensating delete also failed. Callers must not
// report it as a plain send failure.
var ErrCompensationFailed = errors.New("registration cleanup failed, account may be left behind")

// Persistence is the slice of the data layer the workflow drives.
type Persistence interface {
	CreateUser(username, email, passwordHash string) (*models.User, error)
	DeleteUser(id int64) error
	GetUserByID(id int64) (*models.User, error)
	CreateActivation(userID int64) (*models.Activation, error)
	MostRecentActivation(userID int64) (*models.Activation, error)
	ForceExpireActivation(a *models.Activation) error
}

// Workflow registers users and resends activation links.
type Workflow struct {
	store     Persistence
	mailer    mail.Mailer
	publicURL string
}

// New creates a registration workflow. publicURL is the externally
// reachable base used to build activation links.
func New(store Persistence, mailer mail.Mailer, publicURL string) *Workflow {
	return &Workflow{store: store, mailer: mailer, publicURL: publicURL}
}

// Register creates the user, issues an activation record, and mails the
// confirmation link. Any failure after the user row exists deletes it
// again (the activation record cascades), so no orphaned unconfirmed
// account survives a partial run. A best-effort saga, not a transaction:
// when the compensating delete itself fails, the returned error wraps
// ErrCompensationFailed instead of hiding the inconsistency.
func (w *Workflow) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := w.store.CreateUser(username, email, string(hash))
	if err != nil {
		return nil, err
	}

	activation, err := w.store.CreateActivation(user.ID)
	if err != nil {
		return nil, w.compensate(user.ID, err)
	}

	if err := w.mailer.SendActivation(ctx, user.Email, w.activationLink(activation.ID)); err != nil {
		return nil, w.compensate(user.ID, err)
	}

	return user, nil
}

// Resend invalidates the pending activation link and mails a new one. The
// superseded record is force-expired, not deleted; an already-activated
// account cannot request another link.
func (w *Workflow) Resend(ctx context.Context, userID int64) error {
	user, err := w.store.GetUserByID(userID)
	if err != nil {
		return err
	}

	current, err := w.store.MostRecentActivation(userID)
	if err == nil {
		if current.Activated {
			return store.ErrAlreadyActivated
		}
		if err := w.store.ForceExpireActivation(current); err != nil {
			return err
		}
	} else if !errors.Is(err, store.ErrActivationNotFound) {
		return err
	}

	activation, err := w.store.CreateActivation(userID)
	if err != nil {
		return err
	}

	return w.mailer.SendActivation(ctx, user.Email, w.activationLink(activation.ID))
}

func (w *Workflow) activationLink(activationID string) string {
	return fmt.Sprintf("%s/api/v1/user_activate/%s", w.publicURL, activationID)
}

func (w *Workflow) compensate(userID int64, cause error) error {
	if delErr := w.store.DeleteUser(userID); delErr != nil {
		log.Printf("registration compensation failed for user %d: %v (original failure: %v)", userID, delErr, cause)
		return fmt.Errorf("%w: %v", ErrCompensationFailed, cause)
	}
	return cause
}
