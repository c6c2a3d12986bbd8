// Package database opens the PostgreSQL pool behind the order archive.
package database
