package types

import (
	"encoding/json"
)

// Optional tells a field missing from a JSON body apart from one set to null.
type Optional[T any] struct {
	Value   *T
	Defined bool
}

// Only called when the key is present in the payload
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Defined = true
	return json.Unmarshal(data, &o.Value)
}

// Set returns the value when it is present and not null.
func (o Optional[T]) Set() *T {
	if !o.Defined {
		return nil
	}
	return o.Value
}
