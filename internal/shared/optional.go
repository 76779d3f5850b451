package shared

import (
	"bytes"
	"encoding/json"
)

// Optional phân biệt "không gửi field" với "gửi giá trị rỗng" cho PATCH/PUT partial.
// Field vắng mặt trong JSON giữ Set=false; `null` cũng coi như không gửi.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Or trả về Value nếu Set, ngược lại fallback
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}
