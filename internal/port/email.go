package port

import "context"

// ReparseNotification carries what the reparse summary email needs.
type ReparseNotification struct {
	ToEmail       string
	ToName        string
	ProposalID    string
	ProposalTitle string
	Summary       string
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendReparseSummary(ctx context.Context, notification ReparseNotification) error
}
