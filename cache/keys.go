package cache

import (
	"net/http"
	"sort"
	"strings"
)

// Key builds a cache key for a document request: method, path, and the
// sorted query string, so the same resource with the same include set hits
// the same entry regardless of parameter order.
func Key(r *http.Request) string {
	parts := []string{r.Method, r.URL.Path}

	if r.URL.RawQuery != "" {
		query := r.URL.Query()
		queryParts := make([]string, 0, len(query))
		for key, values := range query {
			sort.Strings(values)
			queryParts = append(queryParts, key+"="+strings.Join(values, ","))
		}
		sort.Strings(queryParts)
		parts = append(parts, strings.Join(queryParts, "&"))
	}

	return strings.Join(parts, ":")
}
