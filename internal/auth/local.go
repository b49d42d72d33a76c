package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// TokenTTL is the lifetime of locally issued access tokens.
const TokenTTL = 24 * time.Hour

// LocalProvider keeps identities in the users table and signs HS256
// tokens, for self-hosted deployments and tests.
type LocalProvider struct {
	db       *gorm.DB
	verifier *session.Verifier
	log      logrus.FieldLogger
}

func NewLocalProvider(db *gorm.DB, verifier *session.Verifier, log logrus.FieldLogger) *LocalProvider {
	return &LocalProvider{
		db:       db,
		verifier: verifier,
		log:      log.WithField("component", "LocalProvider"),
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Result, error) {
	email, err := validateCredentials("signIn", email, password)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotAuthenticatedMsg("signIn", "invalid login credentials")
		}
		return nil, apperr.Backend("signIn", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.NotAuthenticatedMsg("signIn", "invalid login credentials")
	}

	return p.issue("signIn", user.ID, user.Email)
}

// SignUp creates the user and its profile in one transaction.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, profile SignUpProfile) (*Result, error) {
	email, err := validateCredentials("signUp", email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Backend("signUp", err)
	}

	user := models.User{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errUserExists
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			ID:        user.ID,
			Email:     email,
			FirstName: strings.TrimSpace(profile.FirstName),
			LastName:  strings.TrimSpace(profile.LastName),
		}).Error
	})
	if errors.Is(err, errUserExists) {
		return nil, apperr.ValidationMsg("signUp", "user already registered")
	}
	if err != nil {
		return nil, apperr.Backend("signUp", err)
	}

	p.log.WithField("user_id", user.ID).Info("user registered")
	return p.issue("signUp", user.ID, user.Email)
}

// SignOut only checks the token; local tokens are stateless and lapse on
// expiry.
func (p *LocalProvider) SignOut(_ context.Context, accessToken string) error {
	if _, err := p.verifier.Verify(accessToken); err != nil {
		return err
	}
	return nil
}

var errUserExists = errors.New("user already exists")

func (p *LocalProvider) issue(op string, id uuid.UUID, email string) (*Result, error) {
	token, _, err := p.verifier.Issue(id, email, TokenTTL)
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	return &Result{
		Identity:    session.Identity{ID: id, Email: email, AccessToken: token},
		AccessToken: token,
		ExpiresIn:   int(TokenTTL.Seconds()),
	}, nil
}
