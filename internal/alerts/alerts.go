// Package alerts runs the scheduled budget-risk check and notifies users
// whose budgets are projected to be exceeded.
package alerts

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/forecast"
	"github.com/fintrack/assistant-service/internal/models"
)

// BudgetSource lists users holding budgets and their current budget lines.
// It is implemented by the Postgres repository.
type BudgetSource interface {
	ListUsersWithBudgets() ([]models.User, error)
	ListBudgetLines(userID int64, now time.Time) ([]models.BudgetLine, error)
}

// Notifier delivers a budget alert to one user
type Notifier interface {
	SendBudgetAlert(to, username string, report models.RiskReport) error
}

// Job scores every budget-holding user's month-end projection and emails
// those at high or critical risk.
type Job struct {
	repo     BudgetSource
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewJob initializes the alert job
func NewJob(repo BudgetSource, notifier Notifier, log *logrus.Logger) *Job {
	return &Job{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pass over all users with budgets. Per-user failures are
// logged and do not stop the pass.
func (j *Job) Run() {
	users, err := j.repo.ListUsersWithBudgets()
	if err != nil {
		j.log.Errorf("Budget alert pass failed to list users: %v", err)
		return
	}

	now := j.now()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()

	var notified int
	for _, user := range users {
		lines, err := j.repo.ListBudgetLines(user.ID, now)
		if err != nil {
			j.log.Errorf("Budget alert failed to load budgets for user %d: %v", user.ID, err)
			continue
		}

		report := forecast.ScoreBudgets(lines, now.Day(), daysInMonth)
		if report.RiskLevel != models.RiskHigh && report.RiskLevel != models.RiskCritical {
			continue
		}

		if err := j.notifier.SendBudgetAlert(user.Email, user.Username, report); err != nil {
			j.log.Errorf("Budget alert failed for user %d: %v", user.ID, err)
			continue
		}
		notified++
	}

	j.log.Infof("Budget alert pass complete: %d/%d users notified", notified, len(users))
}
