// Package manager provisions the target database and its tables.
//
// Database existence is decided by querying the pg_database catalog before
// attempting creation, rather than by interpreting a duplicate-database error
// after the fact. CREATE DATABASE runs on a dedicated acquired connection
// under autocommit semantics since it cannot run inside a transaction.
package manager
