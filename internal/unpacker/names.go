package unpacker

import (
	"fmt"
	"path"
	"strings"
)

// nameRegistry disambiguates repeated entry names within one extraction.
type nameRegistry map[string]int

// resolve returns the output name for the next entry called name. The first
// occurrence keeps its name; the n-th repeat becomes "stem [DUPLICATE_n].ext".
func (r nameRegistry) resolve(name string) string {
	n, seen := r[name]
	if !seen {
		r[name] = 1
		return name
	}

	r[name] = n + 1
	ext := path.Ext(name)
	return fmt.Sprintf("%s [DUPLICATE_%d]%s", strings.TrimSuffix(name, ext), n, ext)
}
