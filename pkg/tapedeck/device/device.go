package device

import (
	"context"

	"github.com/norasector/tapedeck/pkg/tape"
)

// Device produces chunks of interleaved samples. Every chunk holds whole
// frames. Start blocks until the context is done or the source runs dry; it
// never closes chunks.
type Device interface {
	Start(ctx context.Context, chunks chan<- []int32) error
	Stop() error
	Spec() tape.Spec
}
