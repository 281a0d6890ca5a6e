// Package postgres provides PostgreSQL implementations of the kanji and
// review log stores defined in internal/store, together with the embedded
// schema migrations. Queries go through database/sql with the pgx driver.
package postgres
