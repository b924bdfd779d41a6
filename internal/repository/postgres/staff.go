package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
)

type staffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a StaffRepository backed by Postgres.
func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) FindByID(ctx context.Context, id string) (*entity.StaffRef, error) {
	var st entity.StaffRef
	err := r.db.GetContext(ctx, &st,
		"SELECT id, username, role FROM staff WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staff %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query staff %s: %w", id, err)
	}
	return &st, nil
}

func (r *staffRepository) Seed(ctx context.Context, staff []entity.StaffRef) error {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM staff"); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, st := range staff {
		_, err := r.db.NamedExecContext(ctx,
			"INSERT INTO staff (id, username, role) VALUES (:id, :username, :role)", st)
		if err != nil {
			return fmt.Errorf("failed to seed staff %s: %w", st.ID, err)
		}
	}
	return nil
}
