package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrThreadNotFound is returned by ResolveByNotification when no inquiry
// thread is recorded for the given notification message id.
var ErrThreadNotFound = errors.New("inquiry thread not found")

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// AddSubscriber records an opt-in. Inserting an already-present user is a no-op.
	AddSubscriber(ctx context.Context, userID int64) error

	// IsSubscribed reports whether the user is currently opted in.
	IsSubscribed(ctx context.Context, userID int64) (bool, error)

	// ListSubscribers returns all subscriber ids, most recently subscribed first.
	ListSubscribers(ctx context.Context) ([]int64, error)

	// RemoveSubscriber deletes an opt-in record. Removing an absent user is a no-op.
	RemoveSubscriber(ctx context.Context, userID int64) error

	// CountSubscribers returns the current number of subscribers.
	CountSubscribers(ctx context.Context) (int, error)

	// CreateThread records a new customer inquiry and returns its id.
	CreateThread(ctx context.Context, userID int64, body string) (int64, error)

	// AttachNotification stores the staff notification message id for a thread.
	AttachNotification(ctx context.Context, threadID, notificationMessageID int64) error

	// ResolveByNotification returns the originating user of the most recently
	// created thread whose notification message id matches, or ErrThreadNotFound.
	ResolveByNotification(ctx context.Context, notificationMessageID int64) (int64, error)

	// SaveArrival records a published new-arrivals post and sets arrival.ID.
	SaveArrival(ctx context.Context, arrival *Arrival) error

	// RecentArrivals returns up to limit posts, newest first.
	RecentArrivals(ctx context.Context, limit int) ([]Arrival, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withConnection runs op and, when it fails with a stale-connection error,
// forces the pool to re-establish the connection and retries exactly once.
// Any second failure propagates to the caller.
func (s *sqlxStore) withConnection(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !isConnectionError(err) {
		return err
	}

	s.logger.WarnContext(ctx, "Stale database connection detected, reconnecting", "error", err)
	if pingErr := s.db.PingContext(ctx); pingErr != nil {
		return fmt.Errorf("reconnect failed: %w", pingErr)
	}

	return op()
}

// isConnectionError reports whether err looks like a dropped or busy
// connection rather than a query-level failure.
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe")
}

// AddSubscriber records an opt-in, ignoring duplicates.
func (s *sqlxStore) AddSubscriber(ctx context.Context, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	query := `INSERT INTO subscribers (user_id, created_at) VALUES (?, ?)
	          ON CONFLICT(user_id) DO NOTHING;`

	err := s.withConnection(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, userID, time.Now().UTC())
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding subscriber", "user_id", userID, "error", err)
		return fmt.Errorf("failed to add subscriber %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Subscriber recorded", "user_id", userID)
	return nil
}

// IsSubscribed reports whether the user has an opt-in record.
func (s *sqlxStore) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM subscribers WHERE user_id = ?);`

	err := s.withConnection(ctx, func() error {
		return s.db.GetContext(ctx, &exists, query, userID)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error checking subscription", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check subscription for %d: %w", userID, err)
	}

	return exists, nil
}

// ListSubscribers returns subscriber ids ordered by recency of subscription.
// The order only affects broadcast delivery sequence, not correctness.
func (s *sqlxStore) ListSubscribers(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT user_id FROM subscribers ORDER BY created_at DESC, user_id DESC;`

	err := s.withConnection(ctx, func() error {
		return s.db.SelectContext(ctx, &ids, query)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing subscribers", "error", err)
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched subscribers", "count", len(ids))
	return ids, nil
}

// RemoveSubscriber deletes the opt-in record if present.
func (s *sqlxStore) RemoveSubscriber(ctx context.Context, userID int64) error {
	query := `DELETE FROM subscribers WHERE user_id = ?;`

	var affected int64
	err := s.withConnection(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, userID)
		if err != nil {
			return err
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing subscriber", "user_id", userID, "error", err)
		return fmt.Errorf("failed to remove subscriber %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Subscriber removed", "user_id", userID, "affected", affected)
	return nil
}

// CountSubscribers returns the current subscriber count.
func (s *sqlxStore) CountSubscribers(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM subscribers;`

	err := s.withConnection(ctx, func() error {
		return s.db.GetContext(ctx, &count, query)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting subscribers", "error", err)
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}

	return count, nil
}

// CreateThread records a new inquiry. The notification message id is attached
// separately, after the staff notification has been dispatched.
func (s *sqlxStore) CreateThread(ctx context.Context, userID int64, body string) (int64, error) {
	if userID == 0 {
		return 0, fmt.Errorf("user_id cannot be zero")
	}
	if body == "" {
		return 0, fmt.Errorf("inquiry body cannot be empty")
	}

	query := `INSERT INTO operator_threads (user_id, body, created_at) VALUES (?, ?, ?);`

	var threadID int64
	err := s.withConnection(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, userID, body, time.Now().UTC())
		if err != nil {
			return err
		}
		threadID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating inquiry thread", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to create inquiry thread for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Inquiry thread created", "thread_id", threadID, "user_id", userID)
	return threadID, nil
}

// AttachNotification stores the staff notification message id for a thread.
// Set once right after dispatch; the record is append-only afterwards.
func (s *sqlxStore) AttachNotification(ctx context.Context, threadID, notificationMessageID int64) error {
	query := `UPDATE operator_threads SET admin_message_id = ? WHERE id = ?;`

	var affected int64
	err := s.withConnection(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, notificationMessageID, threadID)
		if err != nil {
			return err
		}
		affected, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error attaching notification to thread",
			"thread_id", threadID, "notification_message_id", notificationMessageID, "error", err)
		return fmt.Errorf("failed to attach notification to thread %d: %w", threadID, err)
	}

	if affected != 1 {
		s.logger.WarnContext(ctx, "Attach notification affected unexpected row count",
			"thread_id", threadID, "affected", affected)
	}
	return nil
}

// ResolveByNotification maps a staff reply target back to the customer.
// When notifications were re-sent and several threads share the same message
// id, the most recently created thread wins.
func (s *sqlxStore) ResolveByNotification(ctx context.Context, notificationMessageID int64) (int64, error) {
	var userID int64
	query := `SELECT user_id FROM operator_threads
	          WHERE admin_message_id = ?
	          ORDER BY id DESC LIMIT 1;`

	err := s.withConnection(ctx, func() error {
		return s.db.GetContext(ctx, &userID, query, notificationMessageID)
	})

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No thread for notification message",
			"notification_message_id", notificationMessageID)
		return 0, ErrThreadNotFound

	case err != nil:
		s.logger.ErrorContext(ctx, "Error resolving thread by notification",
			"notification_message_id", notificationMessageID, "error", err)
		return 0, fmt.Errorf("failed to resolve thread for message %d: %w", notificationMessageID, err)
	}

	return userID, nil
}

// SaveArrival records a published new-arrivals post.
func (s *sqlxStore) SaveArrival(ctx context.Context, arrival *Arrival) error {
	if arrival == nil {
		return fmt.Errorf("cannot save nil arrival")
	}
	if arrival.PhotoFileID == "" || arrival.Title == "" {
		return fmt.Errorf("arrival must have a photo and a title")
	}

	arrival.CreatedAt = time.Now().UTC()
	query := `INSERT INTO arrivals (photo_file_id, title, price, created_at)
	          VALUES (:photo_file_id, :title, :price, :created_at);`

	err := s.withConnection(ctx, func() error {
		result, err := s.db.NamedExecContext(ctx, query, arrival)
		if err != nil {
			return err
		}
		arrival.ID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving arrival", "title", arrival.Title, "error", err)
		return fmt.Errorf("failed to save arrival %q: %w", arrival.Title, err)
	}

	s.logger.DebugContext(ctx, "Arrival saved", "arrival_id", arrival.ID, "title", arrival.Title)
	return nil
}

// RecentArrivals returns up to limit posts, newest first.
func (s *sqlxStore) RecentArrivals(ctx context.Context, limit int) ([]Arrival, error) {
	if limit <= 0 {
		limit = 5
	}

	var arrivals []Arrival
	query := `SELECT id, photo_file_id, title, price, created_at
	          FROM arrivals ORDER BY id DESC LIMIT ?;`

	err := s.withConnection(ctx, func() error {
		return s.db.SelectContext(ctx, &arrivals, query, limit)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing arrivals", "error", err)
		return nil, fmt.Errorf("failed to list arrivals: %w", err)
	}

	return arrivals, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
// VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
