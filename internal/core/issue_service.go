package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/models"
)

const issueStatusOpen = "open"

type issueService struct {
	store  db.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewIssueService creates the support ticket service.
func NewIssueService(store db.Store, logger *zap.Logger) IssueService {
	return &issueService{store: store, logger: logger, now: time.Now}
}

// Submit files a ticket. Signed-out visitors may file tickets too; the ticket is then not
// linked to a user.
func (s *issueService) Submit(ctx context.Context, session *models.Session, req models.CreateIssueRequest) (*models.Issue, error) {
	issue := models.Issue{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		OrderID:   req.OrderID,
		Status:    issueStatusOpen,
		CreatedAt: s.now().UTC(),
	}
	if session.SignedIn() {
		issue.UserID = session.UserID
	}
	if err := s.store.Set(ctx, db.IssuesCollection, issue.ID, issue.ToDocument()); err != nil {
		return nil, fmt.Errorf("file issue: %w", err)
	}
	s.logger.Info("Issue filed", zap.String("issue_id", issue.ID), zap.String("email", issue.Email))
	return &issue, nil
}
