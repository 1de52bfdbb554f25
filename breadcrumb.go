package contractkit

import (
	"strconv"
	"strings"
)

// IndexCrumb returns the breadcrumb used for an array or child position.
func IndexCrumb(i int) string { return "[" + strconv.Itoa(i) + "]" }

func isIndexCrumb(c string) bool {
	return len(c) > 2 && c[0] == '[' && c[len(c)-1] == ']'
}

// JoinBreadcrumbs renders breadcrumbs in the dotted report form:
// key crumbs are joined with '.', index crumbs attach to their parent.
func JoinBreadcrumbs(crumbs []string) string {
	b := &strings.Builder{}
	for _, c := range crumbs {
		if c == "" {
			continue
		}
		if b.Len() > 0 && !isIndexCrumb(c) {
			b.WriteByte('.')
		}
		b.WriteString(c)
	}
	return b.String()
}

// PointerOf renders breadcrumbs as an RFC 6901 JSON Pointer.
func PointerOf(crumbs []string) string {
	parts := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		switch {
		case c == "":
			continue
		case isIndexCrumb(c):
			parts = append(parts, c[1:len(c)-1])
		default:
			// escape '~' -> '~0', '/' -> '~1' per RFC6901
			parts = append(parts, strings.ReplaceAll(strings.ReplaceAll(c, "~", "~0"), "/", "~1"))
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}
