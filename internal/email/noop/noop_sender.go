package noop

import (
	"context"
	"fmt"
	"log"

	"worklane/internal/port"
)

type noopSender struct {
	frontendURL string
}

// NewNoopSender creates a no-op EmailSender that logs reparse summaries to stdout.
func NewNoopSender(frontendURL string) port.EmailSender {
	return &noopSender{frontendURL: frontendURL}
}

func (s *noopSender) SendReparseSummary(_ context.Context, n port.ReparseNotification) error {
	proposalURL := fmt.Sprintf("%s/proposals/%s", s.frontendURL, n.ProposalID)
	log.Printf("[NOOP EMAIL] Reparse summary for %s (%s): %s | %s", n.ToName, n.ToEmail, n.Summary, proposalURL)
	return nil
}
