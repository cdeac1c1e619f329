// internal/config/database.go
package config

import (
	"fmt"
)

// DSN renders the key/value connection string understood by the postgres
// driver. Sessions run in UTC so acquisition dates group consistently.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=beycollection",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
