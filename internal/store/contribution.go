package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/keepsake/internal/model"
)

type ContributionStore struct {
	db *sql.DB
}

func NewContributionStore(db *sql.DB) *ContributionStore {
	return &ContributionStore{db: db}
}

func scanContribution(scanner interface{ Scan(...any) error }) (*model.Contribution, error) {
	var c model.Contribution
	var contributorName sql.NullString

	err := scanner.Scan(&c.ID, &c.EventID, &contributorName, &c.Amount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if contributorName.Valid {
		c.ContributorName = &contributorName.String
	}
	return &c, nil
}

const contributionCols = `id, event_id, contributor_name, amount, created_at`

func (s *ContributionStore) Create(eventID int64, contributorName *string, amount float64) (*model.Contribution, error) {
	result, err := s.db.Exec(
		`INSERT INTO contributions (event_id, contributor_name, amount) VALUES (?, ?, ?)`,
		eventID, contributorName, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contribution: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+contributionCols+` FROM contributions WHERE id = ?`, id)
	return scanContribution(row)
}

// ListByEvent returns contributions newest first. Only the event's
// creator ever sees these.
func (s *ContributionStore) ListByEvent(eventID int64) ([]model.Contribution, error) {
	rows, err := s.db.Query(
		`SELECT `+contributionCols+` FROM contributions WHERE event_id = ? ORDER BY created_at DESC, id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, *c)
	}
	return contributions, rows.Err()
}

func (s *ContributionStore) TotalForEvent(eventID int64) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE event_id = ?`,
		eventID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total contributions: %w", err)
	}
	return total, nil
}
