package mqtt

import (
	"context"
	"fmt"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Subscribe implements session.Engine.
//
// All filters are sent in a single SUBSCRIBE packet. The call fails if the
// packet is not acknowledged or if the broker refuses any individual filter
// (SUBACK return code 0x80); a partially granted set is reported as failure.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "sensors/+/temp"
//   - # (multi-level, last level only): "sensors/#"
//
// Parameters:
//   - ctx: Cancels the wait for SUBACK
//   - sub: Ordered, non-empty set of filters
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (e *Engine) Subscribe(ctx context.Context, sub session.Subscription) error {
	if len(sub) == 0 {
		return fmt.Errorf("%w: no filters", ErrSubscribeFailed)
	}

	filters := make(map[string]byte, len(sub))
	for _, f := range sub {
		if err := ValidateFilter(f.Topic); err != nil {
			return err
		}
		if f.QoS > maxQoS {
			return ErrInvalidQoS
		}
		filters[f.Topic] = f.QoS
	}

	if e.isClosed() {
		return ErrClosed
	}
	client := e.current()
	if client == nil || !client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := client.SubscribeMultiple(filters, e.handleMessage)
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	if st, ok := token.(*pahomqtt.SubscribeToken); ok {
		if rejected := rejectedFilters(sub, st.Result()); len(rejected) > 0 {
			return fmt.Errorf("%w: %s", ErrSubscribeRejected, strings.Join(rejected, ", "))
		}
	}

	return nil
}

// rejectedFilters returns the topics whose SUBACK code is a failure, in subscription order.
func rejectedFilters(sub session.Subscription, granted map[string]byte) []string {
	var rejected []string
	for _, f := range sub {
		if code, ok := granted[f.Topic]; ok && code == subackFailure {
			rejected = append(rejected, f.Topic)
		}
	}
	return rejected
}
