package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/glpitrack/glpitrack/internal/models"
)

// GLPIConfigRepository stores per-user GLPI credentials. Load returns nil
// (not an error) when a user has no stored configuration.
type GLPIConfigRepository interface {
	Load(userID int) (*models.GLPIConfig, error)
	Save(userID int, cfg *models.GLPIConfig) error
	Clear(userID int) error
}

// GLPIConfigSQLRepository stores GLPI configurations in SQLite.
type GLPIConfigSQLRepository struct {
	db *sqlx.DB
}

// NewGLPIConfigRepository creates a new GLPI configuration repository.
func NewGLPIConfigRepository(db *sqlx.DB) *GLPIConfigSQLRepository {
	return &GLPIConfigSQLRepository{db: db}
}

// Load returns the stored configuration for a user, or nil if none exists.
func (r *GLPIConfigSQLRepository) Load(userID int) (*models.GLPIConfig, error) {
	var cfg models.GLPIConfig
	err := r.db.Get(&cfg, `SELECT * FROM glpi_configs WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query GLPI config: %w", err)
	}
	return &cfg, nil
}

// Save upserts a user's configuration.
func (r *GLPIConfigSQLRepository) Save(userID int, cfg *models.GLPIConfig) error {
	_, err := r.db.Exec(`
		INSERT INTO glpi_configs (user_id, base_url, app_token, user_token, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			base_url = excluded.base_url,
			app_token = excluded.app_token,
			user_token = excluded.user_token,
			updated_at = excluded.updated_at`,
		userID, cfg.BaseURL, cfg.AppToken, cfg.UserToken,
	)
	if err != nil {
		return fmt.Errorf("failed to save GLPI config: %w", err)
	}
	return nil
}

// Clear removes a user's configuration.
func (r *GLPIConfigSQLRepository) Clear(userID int) error {
	if _, err := r.db.Exec(`DELETE FROM glpi_configs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear GLPI config: %w", err)
	}
	return nil
}
