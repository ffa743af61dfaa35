package layer

import "github.com/google/uuid"

// Option configures a Store.
type Option func(*options)

type options struct {
	newID func() string
}

func defaultOptions() options {
	return options{
		newID: func() string { return "text-" + uuid.NewString() },
	}
}

// WithIDFunc sets the generator for text layer ids.
// The function must return ids unique within the store.
func WithIDFunc(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
