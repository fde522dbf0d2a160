package repository

import "strings"

// searchClause builds the WHERE fragment for case-insensitive substring
// search over a fixed set of column expressions. It returns the clause and
// the LIKE argument; the caller appends the argument once per column. An
// empty or whitespace-only term yields an empty clause, meaning the listing
// is unfiltered.
func searchClause(term string, cols ...string) (string, string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", ""
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = "LOWER(" + col + ") LIKE ?"
	}
	return "(" + strings.Join(parts, " OR ") + ")", "%" + strings.ToLower(term) + "%"
}

// isDuplicateKey reports whether the error is a MySQL duplicate-entry
// violation (error 1062). The unique indexes are the last line of defense
// behind the in-transaction pre-checks.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
