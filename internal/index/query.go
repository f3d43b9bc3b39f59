package index

import "strings"

const defaultSearchLimit = 20

// matchQuery turns free text into an FTS5 MATCH expression. Every word
// becomes a quoted prefix term so punctuation such as '#' or '"' cannot
// break the query syntax, and particles attached to a Korean noun still
// match ("커피" finds "커피를"). Terms are ANDed.
func matchQuery(q string) string {
	var terms []string
	for _, w := range strings.Fields(q) {
		w = strings.Trim(w, `#"'*()^:`)
		if w == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}

// likePattern wraps q for a LIKE ... ESCAPE '\' substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
