// Package loader bulk-loads JSON record arrays into the relational store.
//
// Each load is one parameterized batch insert with ON CONFLICT (id) DO
// NOTHING, committed once for the whole batch, so re-running the same input
// is always safe: duplicate primary keys are skipped, never updated and
// never duplicated. Missing input fields become SQL NULL.
package loader
