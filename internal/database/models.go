package database

import (
	"database/sql"
	"time"
)

// Subscriber is an end user who opted into broadcast messages.
type Subscriber struct {
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Thread is a durable record linking a customer inquiry to the staff
// notification message sent about it. AdminMessageID stays NULL until the
// notification is dispatched and is never mutated afterwards.
type Thread struct {
	ID             int64         `db:"id"`
	UserID         int64         `db:"user_id"`
	Body           string        `db:"body"`
	AdminMessageID sql.NullInt64 `db:"admin_message_id"`
	CreatedAt      time.Time     `db:"created_at"`
}

// Arrival is one published new-arrivals post.
type Arrival struct {
	ID          int64     `db:"id"`
	PhotoFileID string    `db:"photo_file_id"`
	Title       string    `db:"title"`
	Price       string    `db:"price"`
	CreatedAt   time.Time `db:"created_at"`
}
