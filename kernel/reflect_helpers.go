package kernel

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

func parseUUID(s string) (uuid.UUID, error) { return uuid.Parse(s) }

// reflectSlice walks an arbitrary slice-typed value element by element.
// Only reached by toAnySlice when v isn't one of the common concrete
// collection types a caller's derived-method IN argument would naturally
// take.
func reflectSlice(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("kernel: value %v (%T) is not a collection", v, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
