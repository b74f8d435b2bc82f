package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/transit-services/internal/domain"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// UserRepository defines persistence access for users and their role profiles.
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *domain.User, driver *domain.DriverDetails) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error)
	GetProfile(ctx context.Context, role domain.Role, id int64) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, role domain.Role, profile *domain.Profile) error
	DeleteProfile(ctx context.Context, role domain.Role, id int64) error
}

var profileTables = map[domain.Role]string{
	domain.RoleAdmin:     "admins",
	domain.RoleOperator:  "operators",
	domain.RolePassenger: "passengers",
	domain.RoleDriver:    "drivers",
}

func profileTable(role domain.Role) (string, error) {
	table, ok := profileTables[role]
	if !ok {
		return "", fmt.Errorf("no profile table for role %q", role)
	}
	return table, nil
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// CreateWithProfile inserts the user and its role row in one transaction.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *domain.User, driver *domain.DriverDetails) (*domain.Profile, error) {
	table, err := profileTable(user.Role)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertUser = `
        INSERT INTO users (first_name, last_name, email, password_hash, address, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertUser,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Address,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	profile := &domain.Profile{UserID: user.ID, User: *user}
	if user.Role == domain.RoleDriver {
		if driver == nil {
			return nil, errors.New("driver details required")
		}
		const insertDriver = `
            INSERT INTO drivers (user_id, license_number, license_expiry, hire_date, city_id, operator_name)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id`
		if err := tx.QueryRow(ctx, insertDriver,
			user.ID,
			driver.LicenseNumber,
			driver.LicenseExpiry,
			driver.HireDate,
			driver.CityID,
			driver.OperatorName,
		).Scan(&profile.ID); err != nil {
			return nil, err
		}
		details := *driver
		profile.Driver = &details
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (user_id) VALUES ($1) RETURNING id`, table)
		if err := tx.QueryRow(ctx, query, user.ID).Scan(&profile.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, first_name, last_name, email, password_hash, address, role, created_at
        FROM users WHERE email=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Address,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func profileSelect(table string, role domain.Role) string {
	cols := `p.id, p.user_id, u.id, u.first_name, u.last_name, u.email, u.password_hash, u.address, u.role, u.created_at`
	if role == domain.RoleDriver {
		cols += `, p.license_number, p.license_expiry, p.hire_date, p.city_id, p.operator_name`
	}
	return fmt.Sprintf(`SELECT %s FROM %s p JOIN users u ON u.id = p.user_id`, cols, table)
}

func scanProfile(row pgx.Row, role domain.Role) (*domain.Profile, error) {
	var p domain.Profile
	dest := []any{
		&p.ID, &p.UserID,
		&p.User.ID, &p.User.FirstName, &p.User.LastName, &p.User.Email,
		&p.User.PasswordHash, &p.User.Address, &p.User.Role, &p.User.CreatedAt,
	}
	if role == domain.RoleDriver {
		p.Driver = &domain.DriverDetails{}
		dest = append(dest,
			&p.Driver.LicenseNumber, &p.Driver.LicenseExpiry, &p.Driver.HireDate,
			&p.Driver.CityID, &p.Driver.OperatorName,
		)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userRepository) ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	table, err := profileTable(role)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, profileSelect(table, role)+` ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows, role)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *userRepository) GetProfile(ctx context.Context, role domain.Role, id int64) (*domain.Profile, error) {
	table, err := profileTable(role)
	if err != nil {
		return nil, err
	}
	return scanProfile(r.pool.QueryRow(ctx, profileSelect(table, role)+` WHERE p.id=$1`, id), role)
}

// UpdateProfile writes the user columns and, for drivers, the driver columns.
func (r *userRepository) UpdateProfile(ctx context.Context, role domain.Role, profile *domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateUser = `
        UPDATE users SET first_name=$1, last_name=$2, email=$3, password_hash=$4, address=$5
        WHERE id=$6`
	cmd, err := tx.Exec(ctx, updateUser,
		profile.User.FirstName,
		profile.User.LastName,
		profile.User.Email,
		profile.User.PasswordHash,
		profile.User.Address,
		profile.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if role == domain.RoleDriver && profile.Driver != nil {
		const updateDriver = `
            UPDATE drivers SET license_number=$1, license_expiry=$2, hire_date=$3, city_id=$4, operator_name=$5
            WHERE id=$6`
		if _, err := tx.Exec(ctx, updateDriver,
			profile.Driver.LicenseNumber,
			profile.Driver.LicenseExpiry,
			profile.Driver.HireDate,
			profile.Driver.CityID,
			profile.Driver.OperatorName,
			profile.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteProfile removes the owning user; the profile row goes with it.
func (r *userRepository) DeleteProfile(ctx context.Context, role domain.Role, id int64) error {
	table, err := profileTable(role)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM users WHERE id = (SELECT user_id FROM %s WHERE id=$1)`, table)
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
