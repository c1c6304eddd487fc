package ids

import "github.com/segmentio/ksuid"

// New returns a sortable, collision-resistant identifier suitable for
// object keys.
func New() string {
	return ksuid.New().String()
}
