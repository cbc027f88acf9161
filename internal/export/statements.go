package export

import "strings"

// statementDelimiter separates statements in SQL artifacts.
const statementDelimiter = ";"

// SplitStatements splits a statement artifact into its ordered batch:
// fragments are trimmed and empty or whitespace-only ones discarded, so a
// trailing delimiter or blank lines between statements are harmless.
func SplitStatements(sql string) []string {
	fragments := strings.Split(sql, statementDelimiter)
	statements := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if s := strings.TrimSpace(fragment); s != "" {
			statements = append(statements, s)
		}
	}
	return statements
}

// preview truncates statement text for error messages.
func preview(statement string, max int) string {
	if len(statement) <= max {
		return statement
	}
	return statement[:max] + "..."
}
