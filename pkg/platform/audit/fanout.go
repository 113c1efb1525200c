package audit

import (
	"context"
	"errors"
)

// Fanout appends each event to every underlying store. Used to pair the
// database trail with a broker sink; a failure in one destination does not
// stop delivery to the others.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, store := range f {
		if err := store.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
