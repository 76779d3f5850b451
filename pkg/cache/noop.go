package cache

import (
	"context"
	"time"
)

// Noop is used when CACHE_DRIVER=none. Every read is a miss.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                       { return nil }
func (Noop) DeleteByPrefix(context.Context, string) error                  { return nil }
func (Noop) Ping(context.Context) error                                    { return nil }
