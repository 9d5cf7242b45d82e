package scanner

import "context"

// TimestampResolver returns the block timestamp of the block ev was emitted in
type TimestampResolver func(ctx context.Context, ev NominationEvent) (uint64, error)

// TrimBefore drops the prefix of events emitted before since.
//
// events must be ascending by emission order. Timestamps are resolved one
// event at a time, only for events without one, and stored back into the
// slice. Trimming stops at the first event at or after since; everything
// after it is kept without being inspected.
func TrimBefore(ctx context.Context, events []NominationEvent, since int64, resolve TimestampResolver) ([]NominationEvent, error) {
	for i := range events {
		if events[i].BlockTimestamp == 0 {
			ts, err := resolve(ctx, events[i])
			if err != nil {
				return nil, err
			}
			events[i].BlockTimestamp = ts
		}
		if int64(events[i].BlockTimestamp) >= since {
			return events[i:], nil
		}
	}
	return nil, nil
}
