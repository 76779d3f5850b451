package shared

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// RequiredUUID: uuid.UUID là array nên validation.Required không bắt được uuid.Nil
var RequiredUUID = validation.By(func(value interface{}) error {
	switch v := value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return errors.New("cannot be blank")
		}
	case *uuid.UUID:
		if v == nil || *v == uuid.Nil {
			return errors.New("cannot be blank")
		}
	}
	return nil
})

// IfSet áp dụng rules lên Optional[T].Value, bỏ qua khi field không được gửi.
func IfSet[T any](rules ...validation.Rule) validation.Rule {
	return optionalRule[T]{rules: rules}
}

type optionalRule[T any] struct {
	rules []validation.Rule
}

func (r optionalRule[T]) Validate(value interface{}) error {
	o, ok := value.(Optional[T])
	if !ok || !o.Set {
		return nil
	}
	return validation.Validate(o.Value, r.rules...)
}
