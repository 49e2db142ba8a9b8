package mqtt

import "log"

// BacklogSize is the number of messages kept while the broker is unreachable.
const BacklogSize = 256

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest messages published while disconnected, oldest
// first. Not safe for concurrent use.
type backlog struct {
	msgs    []bufferedMsg
	limit   int
	dropped int
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) push(msg bufferedMsg) {
	if len(b.msgs) >= b.limit {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.limit)
		}
		b.dropped++
		n := copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:n]
	}
	b.msgs = append(b.msgs, msg)
}

// drain returns all queued messages and the number dropped since the last
// drain, then empties the backlog.
func (b *backlog) drain() ([]bufferedMsg, int) {
	msgs, dropped := b.msgs, b.dropped
	b.msgs = nil
	b.dropped = 0
	return msgs, dropped
}

func (b *backlog) len() int {
	return len(b.msgs)
}
