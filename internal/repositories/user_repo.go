package repositories

import (
	"context"
	"errors"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	// Upsert creates the user's profile, or overwrites it when a row for the
	// same id already exists. Provisioning retries hit the same id, so the
	// second write is a deterministic overwrite with identical data.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAuthID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.User, error)
	WithTx(tx DBTX) UserRepository
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx DBTX) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, clinic_id, email, password_hash, first_name, last_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET clinic_id = EXCLUDED.clinic_id, role = EXCLUDED.role, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.ClinicID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.Status)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, clinic_id, email, first_name, last_name, role, status, created_at, updated_at
		FROM users
		WHERE clinic_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, clinicID, id).Scan(&user.ID, &user.ClinicID, &user.Email, &user.FirstName, &user.LastName, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail looks the user up across all clinics; emails are globally
// unique.
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, clinic_id, email, password_hash, first_name, last_name, role, status, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.ClinicID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByAuthID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, clinic_id, email, first_name, last_name, role, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.ClinicID, &user.Email, &user.FirstName, &user.LastName, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, role = $3, status = $4, updated_at = NOW()
		WHERE clinic_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query, user.FirstName, user.LastName, user.Role, user.Status, user.ClinicID, user.ID)
	return err
}

func (r *userRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	query := `DELETE FROM users WHERE clinic_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, clinicID, id)
	return err
}

func (r *userRepo) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT id, clinic_id, email, first_name, last_name, role, status, created_at, updated_at
		FROM users
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, clinicID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.ClinicID, &user.Email, &user.FirstName, &user.LastName, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
