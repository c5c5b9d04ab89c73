package models

import "time"

// Issue is a support ticket filed by a customer.
type Issue struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	OrderID   string    `json:"orderId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateIssueRequest is the body of a support ticket submission.
type CreateIssueRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone,omitempty" binding:"omitempty,phone"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
	OrderID string `json:"orderId,omitempty"`
}

// ToDocument renders the issue document.
func (i Issue) ToDocument() map[string]any {
	return map[string]any{
		"userId":    i.UserID,
		"email":     i.Email,
		"phone":     i.Phone,
		"subject":   i.Subject,
		"message":   i.Message,
		"orderId":   i.OrderID,
		"status":    i.Status,
		"createdAt": i.CreatedAt,
	}
}
