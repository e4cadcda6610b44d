package web

import (
	"fmt"
	"net/http"
)

// Form returns the first value of each of the named form fields. Missing
// fields come back as empty strings.
func Form(r *http.Request, names ...string) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("unable to parse form: %w", err)
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = r.PostForm.Get(name)
	}

	return values, nil
}
