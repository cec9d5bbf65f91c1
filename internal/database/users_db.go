package database

import (
	"context"
	"database/sql"

	"github.com/lunchbuddy/app/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, employee_id, name, english_name, team, role, years, telegram_chat_id, pin_hash, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.EmployeeID, &user.Name, &user.EnglishName,
		&user.Team, &user.Role, &user.Years, &user.TelegramChatID, &user.PINHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser hashes the PIN and inserts a new user.
func CreateUser(ctx context.Context, q DBTX, u *models.User, pin string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO users(employee_id, name, english_name, team, role, years, pin_hash)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		u.EmployeeID, u.Name, u.EnglishName, u.Team, u.Role, u.Years, string(hashed))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	// Retrieve the row so DB defaults (created_at) are populated.
	return GetUserByID(ctx, q, id)
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(ctx context.Context, q DBTX, id int64) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmployeeID retrieves a user by their external identifier.
func GetUserByEmployeeID(ctx context.Context, q DBTX, employeeID string) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE employee_id = ?`, employeeID)
	return scanUser(row)
}

// VerifyPIN compares a stored hash with a plaintext PIN.
func VerifyPIN(pinHash string, pin string) error {
	return bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin))
}

// UpdateUserProfile updates the mutable profile fields. The employee id and
// role are not editable here.
func UpdateUserProfile(ctx context.Context, q DBTX, id int64, name, englishName, team string, years int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE users SET name = ?, english_name = ?, team = ?, years = ?
		WHERE id = ?`,
		name, englishName, team, years, id)
	return err
}

// UpdateTelegramChatID links (or clears) the user's Telegram chat.
func UpdateTelegramChatID(ctx context.Context, q DBTX, id int64, chatID string) error {
	_, err := q.ExecContext(ctx, `UPDATE users SET telegram_chat_id = ? WHERE id = ?`, chatID, id)
	return err
}
