package model

import "time"

type EventType string

const (
	EventOwnerSubmitted   EventType = "owner-submitted"
	EventOwnerTrustedBy   EventType = "owner-trusted-by"
	EventOwnerUntrustedBy EventType = "owner-untrusted-by"
	EventOwnerConfirmed   EventType = "owner-confirmed"
	EventOwnerRevoked     EventType = "owner-revoked"
	EventQuorumChanged    EventType = "quorum-changed"

	EventTxSubmitted       EventType = "transaction-submitted"
	EventTxConfirmed       EventType = "transaction-confirmed"
	EventTxQuorumReached   EventType = "transaction-quorum-reached"
	EventTxExecuted        EventType = "transaction-executed"
	EventTxExecutionFailed EventType = "transaction-execution-failed"
	EventTxRevoked         EventType = "transaction-revoked"
)

func (t EventType) String() string {
	return string(t)
}

// Event is a notification raised by a successful engine operation.
// Only the fields relevant to the event type are set.
type Event struct {
	ID        string    `json:"id" bson:"_id" cbor:"id"`
	Sequence  uint64    `json:"sequence" bson:"sequence" cbor:"sequence"`
	Type      EventType `json:"type" bson:"type" cbor:"type"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" cbor:"timestamp"`

	Owner     Address `json:"owner,omitempty" bson:"owner,omitempty" cbor:"owner,omitempty"`
	Supporter Address `json:"supporter,omitempty" bson:"supporter,omitempty" cbor:"supporter,omitempty"`

	Index       uint64  `json:"index" bson:"index" cbor:"index"`
	Destination Address `json:"destination,omitempty" bson:"destination,omitempty" cbor:"destination,omitempty"`
	Value       uint64  `json:"value,omitempty" bson:"value,omitempty" cbor:"value,omitempty"`
	Principal   Address `json:"principal,omitempty" bson:"principal,omitempty" cbor:"principal,omitempty"`
	Count       int     `json:"count,omitempty" bson:"count,omitempty" cbor:"count,omitempty"`

	OldQuorum int    `json:"oldQuorum,omitempty" bson:"oldQuorum,omitempty" cbor:"oldQuorum,omitempty"`
	NewQuorum int    `json:"newQuorum,omitempty" bson:"newQuorum,omitempty" cbor:"newQuorum,omitempty"`
	Reason    string `json:"reason,omitempty" bson:"reason,omitempty" cbor:"reason,omitempty"`
}

func OwnerSubmitted(owner Address) Event {
	return Event{Type: EventOwnerSubmitted, Owner: owner}
}

func OwnerTrustedBy(owner, supporter Address) Event {
	return Event{Type: EventOwnerTrustedBy, Owner: owner, Supporter: supporter}
}

func OwnerUntrustedBy(owner, supporter Address) Event {
	return Event{Type: EventOwnerUntrustedBy, Owner: owner, Supporter: supporter}
}

func OwnerConfirmed(owner Address) Event {
	return Event{Type: EventOwnerConfirmed, Owner: owner}
}

func OwnerRevoked(owner Address) Event {
	return Event{Type: EventOwnerRevoked, Owner: owner}
}

func QuorumChanged(oldQuorum, newQuorum int) Event {
	return Event{Type: EventQuorumChanged, OldQuorum: oldQuorum, NewQuorum: newQuorum}
}

func TxSubmitted(index uint64, destination Address, value uint64) Event {
	return Event{Type: EventTxSubmitted, Index: index, Destination: destination, Value: value}
}

func TxConfirmed(confirmer Address, index uint64, count int) Event {
	return Event{Type: EventTxConfirmed, Principal: confirmer, Index: index, Count: count}
}

func TxQuorumReached(index uint64) Event {
	return Event{Type: EventTxQuorumReached, Index: index}
}

func TxExecuted(index uint64, destination Address, value uint64) Event {
	return Event{Type: EventTxExecuted, Index: index, Destination: destination, Value: value}
}

func TxExecutionFailed(index uint64, destination Address, value uint64, reason string) Event {
	return Event{Type: EventTxExecutionFailed, Index: index, Destination: destination, Value: value, Reason: reason}
}

func TxRevoked(index uint64, revoker Address) Event {
	return Event{Type: EventTxRevoked, Index: index, Principal: revoker}
}
