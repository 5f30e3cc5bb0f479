package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"worklane/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendReparseSummary(ctx context.Context, n port.ReparseNotification) error {
	proposalURL := fmt.Sprintf("%s/proposals/%s", s.frontendURL, n.ProposalID)

	subject := fmt.Sprintf("Reparse complete: %s", n.ProposalTitle)
	htmlBody := buildReparseSummaryHTML(n.ToName, n.ProposalTitle, n.Summary, proposalURL)
	textBody := fmt.Sprintf("Hi %s,\n\nYour proposal %q has been re-extracted.\n\n%s\n\nReview the result here:\n%s\n\nWorklane Team",
		n.ToName, n.ProposalTitle, n.Summary, proposalURL)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{n.ToEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildReparseSummaryHTML(name, title, summary, proposalURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Reparse complete</h2>
  <p>Hi %s,</p>
  <p>Your proposal <strong>%s</strong> has been re-extracted.</p>
  <p style="background-color: #F3F4F6; padding: 12px; border-radius: 6px; color: #333;">%s</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Review Tasks</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Worklane - Proposal Task Tracking</p>
</body>
</html>`, name, title, summary, proposalURL)
}
