// Package item defines the demo data aggregate.
package item

import (
	"time"

	"github.com/google/uuid"
)

// Item is a pass-through document: whatever fields the caller supplied plus
// a generated id and creation stamp. No uniqueness constraint applies.
type Item map[string]interface{}

// New stamps a caller-supplied document with id and createdAt.
func New(fields map[string]interface{}) Item {
	it := make(Item, len(fields)+2)
	for k, v := range fields {
		it[k] = v
	}
	it["id"] = uuid.NewString()
	it["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	return it
}

// ID returns the generated identifier.
func (it Item) ID() string {
	id, _ := it["id"].(string)
	return id
}
