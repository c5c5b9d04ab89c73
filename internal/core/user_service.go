package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
)

type userService struct {
	store  db.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates the user profile service.
func NewUserService(store db.Store, logger *zap.Logger) UserService {
	return &userService{store: store, logger: logger, now: time.Now}
}

// GetOrCreate returns the profile of the session user, creating it on first sign-in.
// The boolean reports whether the profile was created by this call.
func (s *userService) GetOrCreate(ctx context.Context, session *models.Session) (*models.User, bool, error) {
	if !session.SignedIn() {
		return nil, false, ErrUnauthenticated
	}
	var (
		user    models.User
		created bool
	)
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		created = false
		doc, err := tx.Get(db.UsersCollection, session.UserID)
		if err == nil {
			user = models.UserFromDocument(doc.ID, doc.Data)
			return nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		now := s.now().UTC()
		user = models.User{
			ID:          session.UserID,
			Email:       session.UserID,
			DisplayName: session.DisplayName,
			PhotoURL:    session.PhotoURL,
			Addresses:   []models.Address{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		created = true
		return tx.Create(db.UsersCollection, session.UserID, user.ToDocument())
	})
	if err != nil {
		return nil, false, fmt.Errorf("load user %s: %w", session.UserID, err)
	}
	if created {
		s.logger.Info("User profile created", zap.String("user", session.UserID))
	}
	return &user, created, nil
}

// GetByID returns a stored profile.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	doc, err := s.store.Get(ctx, db.UsersCollection, models.UserKey(userID))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}
	u := models.UserFromDocument(doc.ID, doc.Data)
	return &u, nil
}

// UpdateProfile merges the changed fields into the profile. Concurrent edits of the same
// field are last-write-wins.
func (s *userService) UpdateProfile(ctx context.Context, session *models.Session, req models.UpdateProfileRequest) (*models.User, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	fields := req.Fields()
	fields["updatedAt"] = s.now().UTC()
	if err := s.store.Merge(ctx, db.UsersCollection, session.UserID, fields); err != nil {
		return nil, fmt.Errorf("update user %s: %w", session.UserID, err)
	}
	s.logger.Debug("User profile updated", zap.String("user", session.UserID), zap.Int("fields", len(fields)))
	return s.GetByID(ctx, session.UserID)
}

func (s *userService) CompleteOnboarding(ctx context.Context, session *models.Session) (*models.User, error) {
	if !session.SignedIn() {
		return nil, ErrUnauthenticated
	}
	err := s.store.Merge(ctx, db.UsersCollection, session.UserID, map[string]any{
		"onboardingComplete": true,
		"updatedAt":          s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("complete onboarding for %s: %w", session.UserID, err)
	}
	return s.GetByID(ctx, session.UserID)
}
