// Package database provides the PostgreSQL connection pool, schema
// migrations, and the message repository.
package database
