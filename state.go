package flowcore

import "encoding/json"

// GetAs reads key from Context and json-unmarshals it into a T,
// returning ErrKeyNotFound when the key is absent.
func GetAs[T any](ctx Context, key string) (T, error) {
	var out T
	v, err := ctx.Get(key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return out, err
	}
	return out, nil
}

// SetAs json-marshals value and stores it under key.
func SetAs[T any](ctx Context, key string, value T) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ctx.Set(key, b)
	return nil
}

// RunAs adapts Context.Run to a typed closure, json-marshalling its
// result across the journal boundary the same way GetAs/SetAs do for
// state.
func RunAs[T any](ctx Context, fn func() (T, error), policy ...RetryPolicy) (T, error) {
	var out T
	b, err := ctx.Run(func() ([]byte, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}, policy...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}
