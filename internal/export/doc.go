// Package export executes batches of SQL statements and serializes the
// ordered result sets into numbered output artifacts.
//
// Two encodings are supported: records (JSON, one flat mapping per row) and
// markup (XML, one element per row with one child per column). Statement
// order is preserved end to end: statement N always produces output_N.
package export
