package mirror

import (
	"path"
	"strings"
)

// normalizeRel converts p to the canonical relative form: forward slashes
// regardless of source platform, cleaned, no leading "./". Two paths name the
// same tree entry iff their normalized forms are byte-equal. Returns "" for
// paths that name or escape the root.
func normalizeRel(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	if p == "." || p == ".." || p == "/" || strings.HasPrefix(p, "../") {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

// cleanName reduces a listing entry to its bare name. Some endpoints return
// listing entries as full paths, others as names.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
