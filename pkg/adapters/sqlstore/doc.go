// Package sqlstore persists actor snapshots in PostgreSQL (pgx) or SQLite.
//
// The schema ships as embedded goose migrations; Open applies them on connect.
// Several machines can share one database by using distinct namespaces.
package sqlstore
