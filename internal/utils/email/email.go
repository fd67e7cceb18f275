package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/config"
	"github.com/fintrack/assistant-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendBudgetAlert notifies a user whose projected spending puts budgets at
// high or critical risk.
func (s *Sender) SendBudgetAlert(to, username string, report models.RiskReport) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Budget Alert: %s risk of overspending this month", strings.ToUpper(report.RiskLevel))

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", username)
	fmt.Fprintf(&body,
		"Your overall budget risk score is %.1f/100 (%s) with %d days left in the month.\n\n",
		report.RiskScore, report.RiskLevel, report.DaysRemaining)

	if len(report.HighRisk) > 0 {
		body.WriteString("Budgets likely to be exceeded at the current spending rate:\n")
		for _, p := range report.HighRisk {
			fmt.Fprintf(&body,
				"  - %s: spent %.2f so far, projected %.2f against a budget of %.2f\n",
				p.Category, p.SpentToDate, p.ProjectedTotal, p.Budget)
		}
		body.WriteString("\nConsider reducing spending in these categories for the rest of the month.\n")
	}
	body.WriteString("\nBest regards,\nYour Finance Assistant")
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
