package events

import (
	"context"
	"time"
)

type Event interface {
	GetID() string
	GetName() string
	GetDateTime() time.Time
	GetPayload() interface{}
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}
