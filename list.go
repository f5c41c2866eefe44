package har

import (
	"slices"

	"github.com/harlib/har/container"
)

// List returns every entry key in c, sorted lexicographically. The
// container's natural insertion order is available via Container.Keys.
func List(c *container.Container) []string {
	keys := c.Keys()
	slices.Sort(keys)
	return keys
}
