package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrack/assistant-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for read-only query execution
func (r *Repository) DB() *sql.DB {
	return r.db
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO finance.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM finance.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListCategories retrieves all categories for a user
func (r *Repository) ListCategories(userID int64) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name, type
		FROM finance.categories
		WHERE user_id = $1
		ORDER BY name`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FindCategory retrieves a category by case-insensitive name and type
func (r *Repository) FindCategory(userID int64, name, txType string) (*models.Category, error) {
	c := &models.Category{}
	query := `
		SELECT id, user_id, name, type
		FROM finance.categories
		WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND type = $3`
	err := r.db.QueryRow(query, userID, name, txType).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// SpendSummary retrieves the all-history totals grouped by type and category
func (r *Repository) SpendSummary(userID int64) ([]models.SummaryRow, error) {
	query := `
		SELECT t.type, c.name, SUM(t.amount)
		FROM finance.transactions t
		JOIN finance.categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		GROUP BY t.type, c.name
		ORDER BY SUM(t.amount) DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary: %w", err)
	}
	defer rows.Close()

	var summary []models.SummaryRow
	for rows.Next() {
		var row models.SummaryRow
		if err := rows.Scan(&row.Type, &row.Category, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// MonthlyTotals retrieves this month's totals keyed by transaction type
func (r *Repository) MonthlyTotals(userID int64, now time.Time) (map[string]float64, error) {
	query := `
		SELECT type, SUM(amount)
		FROM finance.transactions
		WHERE user_id = $1
		  AND EXTRACT(MONTH FROM date) = $2
		  AND EXTRACT(YEAR FROM date) = $3
		GROUP BY type`
	rows, err := r.db.Query(query, userID, int(now.Month()), now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly totals: %w", err)
	}
	defer rows.Close()

	totals := map[string]float64{}
	for rows.Next() {
		var txType string
		var total float64
		if err := rows.Scan(&txType, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals[txType] = total
	}
	return totals, rows.Err()
}

// MonthlyTotalByType retrieves this month's total for one transaction type
func (r *Repository) MonthlyTotalByType(userID int64, txType string, now time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM finance.transactions
		WHERE user_id = $1 AND type = $2
		  AND EXTRACT(MONTH FROM date) = $3
		  AND EXTRACT(YEAR FROM date) = $4`
	var total float64
	err := r.db.QueryRow(query, userID, txType, int(now.Month()), now.Year()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch monthly total: %w", err)
	}
	return total, nil
}

// MonthlySeries retrieves up to months monthly totals for a type, optionally
// filtered by category name, ordered oldest first.
func (r *Repository) MonthlySeries(userID int64, txType, category string, months int) ([]float64, error) {
	query := `
		SELECT SUM(t.amount)
		FROM finance.transactions t
		JOIN finance.categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = $2
		  AND ($3 = '' OR LOWER(c.name) = LOWER($3))
		GROUP BY EXTRACT(YEAR FROM t.date), EXTRACT(MONTH FROM t.date)
		ORDER BY EXTRACT(YEAR FROM t.date) DESC, EXTRACT(MONTH FROM t.date) DESC
		LIMIT $4`
	rows, err := r.db.Query(query, userID, txType, category, months)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly series: %w", err)
	}
	defer rows.Close()

	var newestFirst []float64
	for rows.Next() {
		var total float64
		if err := rows.Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		newestFirst = append(newestFirst, total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	series := make([]float64, len(newestFirst))
	for i, v := range newestFirst {
		series[len(newestFirst)-1-i] = v
	}
	return series, nil
}

// ListBudgetLines retrieves all budgets with their current-month spend
func (r *Repository) ListBudgetLines(userID int64, now time.Time) ([]models.BudgetLine, error) {
	query := `
		SELECT b.id, b.user_id, b.category_id, c.name, b.amount, b.period,
		       COALESCE((
		           SELECT SUM(t.amount)
		           FROM finance.transactions t
		           WHERE t.user_id = b.user_id
		             AND t.category_id = b.category_id
		             AND t.type = 'expense'
		             AND EXTRACT(MONTH FROM t.date) = $2
		             AND EXTRACT(YEAR FROM t.date) = $3
		       ), 0)
		FROM finance.budgets b
		JOIN finance.categories c ON c.id = b.category_id
		WHERE b.user_id = $1
		ORDER BY c.name`
	rows, err := r.db.Query(query, userID, int(now.Month()), now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var lines []models.BudgetLine
	for rows.Next() {
		var line models.BudgetLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.CategoryID, &line.Category,
			&line.Amount, &line.Period, &line.SpentToDate); err != nil {
			return nil, fmt.Errorf("failed to scan budget line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListSavingsGoals retrieves all savings goals for a user
func (r *Repository) ListSavingsGoals(userID int64) ([]models.SavingsGoal, error) {
	query := `
		SELECT id, user_id, name, target_amount, current_amount, target_date
		FROM finance.savings_goals
		WHERE user_id = $1
		ORDER BY name`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var g models.SavingsGoal
		var targetDate sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &targetDate); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		if targetDate.Valid {
			t := targetDate.Time
			g.TargetDate = &t
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CategorySpendForMonth retrieves this month's expense totals keyed by
// category name
func (r *Repository) CategorySpendForMonth(userID int64, now time.Time) (map[string]float64, error) {
	query := `
		SELECT c.name, SUM(t.amount)
		FROM finance.transactions t
		JOIN finance.categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = 'expense'
		  AND EXTRACT(MONTH FROM t.date) = $2
		  AND EXTRACT(YEAR FROM t.date) = $3
		GROUP BY c.name`
	rows, err := r.db.Query(query, userID, int(now.Month()), now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category spend: %w", err)
	}
	defer rows.Close()

	totals := map[string]float64{}
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		totals[name] = total
	}
	return totals, rows.Err()
}

// CategoryMonthlyAverages retrieves the historical average monthly expense
// per category name
func (r *Repository) CategoryMonthlyAverages(userID int64) (map[string]float64, error) {
	query := `
		SELECT name, AVG(monthly_total)
		FROM (
		    SELECT c.name AS name, SUM(t.amount) AS monthly_total
		    FROM finance.transactions t
		    JOIN finance.categories c ON c.id = t.category_id
		    WHERE t.user_id = $1 AND t.type = 'expense'
		    GROUP BY c.name, EXTRACT(YEAR FROM t.date), EXTRACT(MONTH FROM t.date)
		) monthly
		GROUP BY name`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category averages: %w", err)
	}
	defer rows.Close()

	averages := map[string]float64{}
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan category average: %w", err)
		}
		averages[name] = avg
	}
	return averages, rows.Err()
}

// AddTransaction creates a new transaction
func (r *Repository) AddTransaction(tx *models.Transaction) error {
	query := `
		INSERT INTO finance.transactions (user_id, category_id, amount, type, description, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, tx.UserID, tx.CategoryID, tx.Amount, tx.Type, tx.Description, tx.Date).
		Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// UpdateRecentTransaction updates the amount of the most recent transaction
// since the given time matching the optional category (0 = any) and old
// amount (0 = any). Returns nil when nothing matches.
func (r *Repository) UpdateRecentTransaction(userID, categoryID int64, oldAmount, newAmount float64, since time.Time) (*models.Transaction, string, error) {
	tx, catName, err := r.findRecentTransaction(userID, categoryID, oldAmount, since)
	if err != nil || tx == nil {
		return nil, "", err
	}

	query := `
		UPDATE finance.transactions
		SET amount = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	if _, err := r.db.Exec(query, newAmount, tx.ID); err != nil {
		return nil, "", fmt.Errorf("failed to update transaction: %w", err)
	}
	tx.Amount = newAmount
	return tx, catName, nil
}

// DeleteRecentTransaction deletes the most recent transaction since the
// given time matching the optional category (0 = any) and amount (0 = any).
// Returns nil when nothing matches.
func (r *Repository) DeleteRecentTransaction(userID, categoryID int64, amount float64, since time.Time) (*models.Transaction, string, error) {
	tx, catName, err := r.findRecentTransaction(userID, categoryID, amount, since)
	if err != nil || tx == nil {
		return nil, "", err
	}

	if _, err := r.db.Exec(`DELETE FROM finance.transactions WHERE id = $1`, tx.ID); err != nil {
		return nil, "", fmt.Errorf("failed to delete transaction: %w", err)
	}
	return tx, catName, nil
}

func (r *Repository) findRecentTransaction(userID, categoryID int64, amount float64, since time.Time) (*models.Transaction, string, error) {
	query := `
		SELECT t.id, t.user_id, t.category_id, t.amount, t.type, t.description, t.date, c.name
		FROM finance.transactions t
		JOIN finance.categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		  AND ($2 = 0 OR t.category_id = $2)
		  AND ($3 = 0 OR t.amount = $3)
		  AND t.date >= $4
		ORDER BY t.date DESC
		LIMIT 1`
	tx := &models.Transaction{}
	var catName string
	err := r.db.QueryRow(query, userID, categoryID, amount, since).
		Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date, &catName)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, catName, nil
}

// ListUsersWithBudgets retrieves every user that has at least one budget
func (r *Repository) ListUsersWithBudgets() ([]models.User, error) {
	query := `
		SELECT DISTINCT u.id, u.username, u.email
		FROM finance.users u
		JOIN finance.budgets b ON b.user_id = u.id
		ORDER BY u.id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with budgets: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
