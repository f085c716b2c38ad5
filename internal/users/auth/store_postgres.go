// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/database/schema"
	"github.com/nzela/nzela-api/internal/platform/dberr"
	"github.com/nzela/nzela-api/internal/platform/postgres"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// # User Repository

// PostgresCredentialStore implements [CredentialStore] using pgx.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore creates a new PostgreSQL implementation of the CredentialStore.
func NewCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// userColumns is the SELECT list matching [scanUser].
var userColumns = schema.List("", schema.UserAccount.Columns()...)

// scanUser hydrates a row selected with userColumns.
func scanUser(row pgx.Row) (*User, error) {
	var (
		user        User
		role        string
		permissions []string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Province,
		&role,
		&permissions,
		&user.IsActive,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLogin,
		&user.LastActivity,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	// Decoded once here; everything downstream sees typed values.
	if user.Role, err = sec.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if user.Permissions, err = sec.ParsePermissions(permissions); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}

	return &user, nil
}

func (repository *PostgresCredentialStore) findOne(context context.Context, op, where string, arg any) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		userColumns, schema.UserAccount.Table, where, schema.UserAccount.DeletedAt,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, arg))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres_credential_store_%s_failed: %w", op, err)
	}
	return user, nil
}

/*
FindUserByEmail retrieves an account by its case-folded email.

Returns:
  - *User: Hydrated account entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresCredentialStore) FindUserByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, "find_by_email", schema.UserAccount.Email, email)
}

/*
FindUserByID retrieves an account by primary key.

Returns:
  - *User: Hydrated account entity
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresCredentialStore) FindUserByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, "find_by_id", schema.UserAccount.ID, id)
}

/*
InsertUser persists a new record into users.account.

Returns:
  - error: apperr.Conflict on a duplicate email, or database errors
*/
func (repository *PostgresCredentialStore) InsertUser(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Password,
		schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.Phone,
		schema.UserAccount.Province, schema.UserAccount.Role, schema.UserAccount.Permissions,
		schema.UserAccount.IsActive, schema.UserAccount.CreatedBy, schema.UserAccount.CreatedAt,
		schema.UserAccount.UpdatedAt,
	)

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Province,
		string(user.Role),
		user.Permissions.Names(),
		user.IsActive,
		user.CreatedBy,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if dberr.IsUniqueViolation(err, schema.UserAccount.EmailKey) {
		return apperr.Conflict("Email is already registered").WithCause(err)
	}
	return dberr.Wrap(err, "postgres_credential_store_insert_failed")
}

/*
UpdateUser builds a SET clause from the non-nil fields of update.

Returns:
  - *User: The row after the update
  - error: ErrUserNotFound, apperr.Conflict, or database errors
*/
func (repository *PostgresCredentialStore) UpdateUser(context context.Context, id string, update UserUpdate) (*User, error) {
	if update.Empty() {
		return repository.FindUserByID(context, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Email != nil {
		set(schema.UserAccount.Email, *update.Email)
	}
	if update.PasswordHash != nil {
		set(schema.UserAccount.Password, *update.PasswordHash)
	}
	if update.FirstName != nil {
		set(schema.UserAccount.FirstName, *update.FirstName)
	}
	if update.LastName != nil {
		set(schema.UserAccount.LastName, *update.LastName)
	}
	if update.Phone != nil {
		set(schema.UserAccount.Phone, *update.Phone)
	}
	if update.Province != nil {
		set(schema.UserAccount.Province, *update.Province)
	}
	if update.Role != nil {
		set(schema.UserAccount.Role, string(*update.Role))
	}
	if update.Permissions != nil {
		set(schema.UserAccount.Permissions, update.Permissions.Names())
	}
	if update.IsActive != nil {
		set(schema.UserAccount.IsActive, *update.IsActive)
	}
	set(schema.UserAccount.UpdatedAt, time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE %s = $%d AND %s IS NULL
		RETURNING %s`,
		schema.UserAccount.Table, strings.Join(sets, ", "),
		schema.UserAccount.ID, len(args), schema.UserAccount.DeletedAt,
		userColumns,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, args...))
	switch {
	case err == nil:
		return user, nil
	case dberr.IsNoRows(err):
		return nil, ErrUserNotFound
	case dberr.IsUniqueViolation(err, schema.UserAccount.EmailKey):
		return nil, apperr.Conflict("Email is already in use").WithCause(err)
	default:
		return nil, dberr.Wrap(err, "postgres_credential_store_update_failed")
	}
}

func (repository *PostgresCredentialStore) touch(context context.Context, op, column, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`,
		schema.UserAccount.Table, column, schema.UserAccount.ID,
	)
	if _, err := repository.pool.Exec(context, query, at, id); err != nil {
		return fmt.Errorf("postgres_credential_store_%s_failed: %w", op, err)
	}
	return nil
}

// TouchLastLogin stamps users.account.lastlogin.
func (repository *PostgresCredentialStore) TouchLastLogin(context context.Context, id string, at time.Time) error {
	return repository.touch(context, "touch_last_login", schema.UserAccount.LastLogin, id, at)
}

// TouchLastActivity stamps users.account.lastactivity.
func (repository *PostgresCredentialStore) TouchLastActivity(context context.Context, id string, at time.Time) error {
	return repository.touch(context, "touch_last_activity", schema.UserAccount.LastActivity, id, at)
}

/*
SoftDeleteUser renames the email to deleted_<id>_<email> so the address can be
registered again, and deactivates the account.
*/
func (repository *PostgresCredentialStore) SoftDeleteUser(context context.Context, id string, at time.Time) error {
	return softDeleteUser(context, repository.pool, id, at)
}

// SoftDeleteUserTx is [PostgresCredentialStore.SoftDeleteUser] inside a
// caller-owned transaction.
func SoftDeleteUserTx(context context.Context, tx pgx.Tx, id string, at time.Time) error {
	return softDeleteUser(context, tx, id, at)
}

func softDeleteUser(context context.Context, db execer, id string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = 'deleted_' || %[3]s::text || '_' || %[2]s,
		    %[4]s = FALSE, %[5]s = $1, %[6]s = $1
		WHERE %[3]s = $2 AND %[5]s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Email,
		schema.UserAccount.ID,
		schema.UserAccount.IsActive,
		schema.UserAccount.DeletedAt,
		schema.UserAccount.UpdatedAt,
	)

	tag, err := db.Exec(context, query, at, id)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

/*
ListUsers returns one page of live accounts, newest first, with the total match count.
*/
func (repository *PostgresCredentialStore) ListUsers(context context.Context, filter UserFilter) ([]*User, int, error) {
	var queryBuilder strings.Builder
	args := []any{}
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER()
		FROM %s
		WHERE %s IS NULL`,
		userColumns, schema.UserAccount.Table, schema.UserAccount.DeletedAt,
	))

	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = string(role)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = ANY($%d)", schema.UserAccount.Role, argID))
		args = append(args, roles)
		argID++
	}

	if filter.Active != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", schema.UserAccount.IsActive, argID))
		args = append(args, *filter.Active)
		argID++
	}

	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (%s ILIKE $%d OR %s ILIKE $%d OR %s ILIKE $%d)",
			schema.UserAccount.Email, argID,
			schema.UserAccount.FirstName, argID,
			schema.UserAccount.LastName, argID,
		))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argID++
	}

	if filter.CreatedSince != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s >= $%d", schema.UserAccount.CreatedAt, argID))
		args = append(args, *filter.CreatedSince)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s DESC", schema.UserAccount.CreatedAt))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, filter.Limit, filter.Offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_credential_store_list_failed: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	total := 0
	for rows.Next() {
		user, err := scanUser(&countingRow{rows: rows, total: &total})
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_credential_store_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_credential_store_list_failed: %w", err)
	}

	return users, total, nil
}

// countingRow appends the window COUNT(*) destination to a user scan.
type countingRow struct {
	rows  pgx.Rows
	total *int
}

func (row *countingRow) Scan(dest ...any) error {
	return row.rows.Scan(append(dest, row.total)...)
}

// CountUsers returns the number of live accounts per role.
func (repository *PostgresCredentialStore) CountUsers(context context.Context) (map[sec.Role]int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM %s
		WHERE %s IS NULL
		GROUP BY %s`,
		schema.UserAccount.Role, schema.UserAccount.Table,
		schema.UserAccount.DeletedAt, schema.UserAccount.Role,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_credential_store_count_failed: %w", err)
	}
	defer rows.Close()

	counts := map[sec.Role]int{sec.RoleCitizen: 0, sec.RoleAdmin: 0, sec.RoleSuperadmin: 0}
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("postgres_credential_store_count_scan_failed: %w", err)
		}
		counts[sec.Role(role)] = count
	}
	return counts, rows.Err()
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// # Session Repository

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(context context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertSession(context context.Context, db execer, session *Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)`,
		schema.UserSession.Table,
		schema.UserSession.ID, schema.UserSession.UserID, schema.UserSession.TokenHash,
		schema.UserSession.IPAddress, schema.UserSession.UserAgent, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.ExpiresAt,
	)

	_, err := db.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_session_repo_insert_failed")
	}

	session.IsActive = true
	return nil
}

/*
CreateExclusive locks the user row, deactivates the user's active sessions and
inserts the new one in a single transaction.

Description: The row lock serializes concurrent logins of the same user, so the
last session to commit is the only active one.
*/
func (repository *PostgresSessionRepository) CreateExclusive(context context.Context, session *Session) error {
	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
			schema.UserAccount.ID, schema.UserAccount.Table, schema.UserAccount.ID,
		)

		var locked string
		if err := tx.QueryRow(context, lockQuery, session.UserID).Scan(&locked); err != nil {
			if dberr.IsNoRows(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("postgres_session_repo_lock_user_failed: %w", err)
		}

		if _, err := revokeWhere(context, tx, session.CreatedAt, fmt.Sprintf("%s = $2", schema.UserSession.UserID), session.UserID); err != nil {
			return err
		}

		return insertSession(context, tx, session)
	})
}

// Create inserts a session without touching the user's other sessions.
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	return insertSession(context, repository.pool, session)
}

/*
FindByTokenHash returns the session carrying tokenHash.

Description: Superseded is true when another active session of the same user
was created later, which only happens when a concurrent login lost the race.

Returns:
  - *Session: Hydrated entity, live or not
  - error: ErrSessionNotFound or database errors
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s,
		       EXISTS (
		           SELECT 1 FROM %[2]s n
		           WHERE n.%[3]s = s.%[3]s AND n.%[4]s AND n.%[5]s <> s.%[5]s
		             AND (n.%[6]s, n.%[5]s) > (s.%[6]s, s.%[5]s)
		       )
		FROM %[2]s s
		WHERE s.%[7]s = $1`,
		schema.List("s", schema.UserSession.Columns()...),
		schema.UserSession.Table,
		schema.UserSession.UserID,
		schema.UserSession.IsActive,
		schema.UserSession.ID,
		schema.UserSession.CreatedAt,
		schema.UserSession.TokenHash,
	)

	session := &Session{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.IsActive,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.LastSeenAt,
		&session.Superseded,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("postgres_session_repo_find_by_token_failed: %w", err)
	}

	return session, nil
}

// revokeWhere deactivates the active sessions matching cond; $1 is the revocation time.
func revokeWhere(context context.Context, db execer, at time.Time, cond string, args ...any) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = FALSE, %s = $1
		WHERE %s AND %s`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.IsActive, cond,
	)

	tag, err := db.Exec(context, query, append([]any{at}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Deactivate marks one session inactive.
func (repository *PostgresSessionRepository) Deactivate(context context.Context, id string, at time.Time) error {
	_, err := revokeWhere(context, repository.pool, at, fmt.Sprintf("%s = $2", schema.UserSession.ID), id)
	return err
}

// DeactivateByTokenHash marks the session carrying tokenHash inactive.
func (repository *PostgresSessionRepository) DeactivateByTokenHash(context context.Context, tokenHash string, at time.Time) error {
	_, err := revokeWhere(context, repository.pool, at, fmt.Sprintf("%s = $2", schema.UserSession.TokenHash), tokenHash)
	return err
}

// RevokeAll deactivates every active session of the user.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string, at time.Time) (int64, error) {
	return revokeWhere(context, repository.pool, at, fmt.Sprintf("%s = $2", schema.UserSession.UserID), userID)
}

// RevokeOthers deactivates every active session of the user except keepID.
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, keepID string, at time.Time) (int64, error) {
	cond := fmt.Sprintf("%s = $2 AND %s <> $3", schema.UserSession.UserID, schema.UserSession.ID)
	return revokeWhere(context, repository.pool, at, cond, userID, keepID)
}

// RevokeOwned deactivates the session id if it is live and belongs to userID.
func (repository *PostgresSessionRepository) RevokeOwned(context context.Context, userID, id string, at time.Time) (bool, error) {
	cond := fmt.Sprintf("%s = $2 AND %s = $3 AND %s > $1",
		schema.UserSession.UserID, schema.UserSession.ID, schema.UserSession.ExpiresAt)
	revoked, err := revokeWhere(context, repository.pool, at, cond, userID, id)
	return revoked == 1, err
}

// ListActive returns the live sessions of the user, newest first.
func (repository *PostgresSessionRepository) ListActive(context context.Context, userID string, now time.Time) ([]*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s AND %s > $2
		ORDER BY %s DESC`,
		schema.List("", schema.UserSession.Columns()...),
		schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.IsActive, schema.UserSession.ExpiresAt,
		schema.UserSession.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		session := &Session{}
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TokenHash,
			&session.IPAddress,
			&session.UserAgent,
			&session.IsActive,
			&session.CreatedAt,
			&session.ExpiresAt,
			&session.LastSeenAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_session_repo_list_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	return sessions, nil
}

/*
RotateToken replaces the token hash of an active session, compare-and-swap on
the previous hash.
*/
func (repository *PostgresSessionRepository) RotateToken(context context.Context, id, oldHash, newHash string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $1
		WHERE %s = $2 AND %s = $3 AND %s`,
		schema.UserSession.Table, schema.UserSession.TokenHash,
		schema.UserSession.ID, schema.UserSession.TokenHash, schema.UserSession.IsActive,
	)

	tag, err := repository.pool.Exec(context, query, newHash, id, oldHash)
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_rotate_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Extend moves the expiry of an active session.
func (repository *PostgresSessionRepository) Extend(context context.Context, id string, expiresAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2 AND %s`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt,
		schema.UserSession.ID, schema.UserSession.IsActive,
	)

	tag, err := repository.pool.Exec(context, query, expiresAt, id)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_extend_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionRevoked
	}
	return nil
}

// TouchLastSeen stamps users.session.lastseenat.
func (repository *PostgresSessionRepository) TouchLastSeen(context context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`,
		schema.UserSession.Table, schema.UserSession.LastSeenAt, schema.UserSession.ID,
	)
	if _, err := repository.pool.Exec(context, query, at, id); err != nil {
		return fmt.Errorf("postgres_session_repo_touch_failed: %w", err)
	}
	return nil
}

/*
DeleteExpired physically removes expired sessions and inactive sessions older
than inactiveBefore.
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, now, inactiveBefore time.Time) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s <= $1 OR (NOT %s AND %s < $2)`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt,
		schema.UserSession.IsActive, schema.UserSession.CreatedAt,
	)

	tag, err := repository.pool.Exec(context, query, now, inactiveBefore)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
