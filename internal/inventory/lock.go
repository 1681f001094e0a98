package inventory

import (
	"fmt"

	"github.com/fekuna/pantry-service/internal/model"
)

// LockKey is the lock every writer of an item's quantity or identity holds.
// It is keyed by normalized name so that two lines naming the same new item
// serialize before either has an id.
func LockKey(ownerID, name string) string {
	return fmt.Sprintf("lock:pantry:item:%s:%s", ownerID, model.NormalizeName(name))
}
