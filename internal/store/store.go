// Package store persists the medication collection, theme preference, and
// login credentials as serialized values in the app_state table. The core
// loads the collection once at startup and saves the whole collection after
// every mutation; last write wins.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"dose-tracker/internal/database"
	"dose-tracker/internal/models"
)

// State keys. The medication and theme keys are carried over from the
// original client app so an imported dump stays recognizable.
const (
	medicationsKey = "meds.v1"
	themeKey       = "meds.theme.v1"
	credentialsKey = "auth.v1"
)

// Credentials is the single login record for this household.
type Credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

// LoadMedications returns the persisted collection, or nil when nothing has
// been saved yet.
func (s *Store) LoadMedications() ([]models.Medication, error) {
	var meds []models.Medication
	if err := s.loadJSON(medicationsKey, &meds); err != nil {
		return nil, fmt.Errorf("failed to load medications: %w", err)
	}
	return meds, nil
}

// SaveMedications replaces the persisted collection.
func (s *Store) SaveMedications(meds []models.Medication) error {
	if err := s.saveJSON(medicationsKey, meds); err != nil {
		return fmt.Errorf("failed to save medications: %w", err)
	}
	return nil
}

// Theme returns the persisted theme, defaulting to light.
func (s *Store) Theme() (models.Theme, error) {
	value, err := s.loadValue(themeKey)
	if err != nil {
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	theme := models.Theme(value)
	if !theme.Valid() {
		return models.ThemeLight, nil
	}
	return theme, nil
}

// SaveTheme persists the theme preference.
func (s *Store) SaveTheme(theme models.Theme) error {
	if err := s.saveValue(themeKey, string(theme)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// Credentials returns the stored login record, or nil before first-run setup.
func (s *Store) Credentials() (*Credentials, error) {
	value, err := s.loadValue(credentialsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if value == "" {
		return nil, nil
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return &creds, nil
}

// SaveCredentials stores the login record.
func (s *Store) SaveCredentials(creds Credentials) error {
	if err := s.saveJSON(credentialsKey, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *Store) loadJSON(key string, dest interface{}) error {
	value, err := s.loadValue(key)
	if err != nil {
		return err
	}
	if value == "" {
		return nil
	}
	return json.Unmarshal([]byte(value), dest)
}

func (s *Store) saveJSON(key string, src interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return s.saveValue(key, string(data))
}

func (s *Store) loadValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) saveValue(key, value string) error {
	query := `
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.Exec(query, key, value)
	return err
}
