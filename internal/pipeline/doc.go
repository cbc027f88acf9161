// Package pipeline orchestrates a full export run: database provisioning,
// schema application, bulk loading, index creation, and result export. It
// owns the single database session for the run and degrades gracefully when
// no session can be established.
package pipeline
