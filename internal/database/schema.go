package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// Unique index names. The user repository maps duplicate-key errors back to
// the offending field by these names.
const (
	UniqueUserEmail    = "uq_users_email"
	UniqueUserUsername = "uq_users_username"
	UniqueUserPhone    = "uq_users_phone"
)

// Column widths, in characters, of free-text fields that callers must check
// before writing. Longer values are rejected by MySQL in strict mode.
const (
	MaxNameLen         = 255
	MaxEmailLen        = 255
	MaxEnquiryPhoneLen = 50
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name            VARCHAR(` + itoa(MaxNameLen) + `) NOT NULL,
		username        VARCHAR(20)  NOT NULL,
		email           VARCHAR(` + itoa(MaxEmailLen) + `) NOT NULL,
		phone           VARCHAR(20)  NOT NULL,
		password_hash   VARCHAR(100) NOT NULL,
		role            ENUM('user','admin') NOT NULL DEFAULT 'user',
		is_active       TINYINT(1)   NOT NULL DEFAULT 1,
		address         JSON NULL,
		date_of_birth   DATE NULL,
		profile_picture MEDIUMTEXT NOT NULL,
		created_at      DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at      DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		UNIQUE KEY ` + UniqueUserEmail + ` (email),
		UNIQUE KEY ` + UniqueUserUsername + ` (username),
		UNIQUE KEY ` + UniqueUserPhone + ` (phone)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS enquiries (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name         VARCHAR(` + itoa(MaxNameLen) + `) NOT NULL,
		email        VARCHAR(` + itoa(MaxEmailLen) + `) NOT NULL,
		phone        VARCHAR(` + itoa(MaxEnquiryPhoneLen) + `) NOT NULL,
		date_of_plan DATETIME NOT NULL,
		subject      ENUM('enquiry','membership') NOT NULL,
		message      MEDIUMTEXT NOT NULL,
		status       ENUM('pending','in_progress','resolved','closed') NOT NULL DEFAULT 'pending',
		assigned_to  BIGINT UNSIGNED NULL,
		created_at   DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at   DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		PRIMARY KEY (id),
		KEY idx_enquiries_email (email),
		KEY idx_enquiries_status_created (status, created_at),
		KEY idx_enquiries_created (created_at),
		CONSTRAINT fk_enquiries_assigned_to FOREIGN KEY (assigned_to) REFERENCES users (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables when they do not exist yet. It is safe to run
// on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
