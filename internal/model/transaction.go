package model

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusExecuted  TxStatus = "executed"
	TxStatusRevoked   TxStatus = "revoked"
)

func (status TxStatus) String() string {
	return string(status)
}

// Transaction is a copy of a ledger record together with its derived status.
type Transaction struct {
	Index         uint64    `json:"index" bson:"index" cbor:"index"`
	Destination   Address   `json:"destination" bson:"destination" cbor:"destination"`
	Value         uint64    `json:"value" bson:"value" cbor:"value"`
	Payload       []byte    `json:"payload,omitempty" bson:"payload,omitempty" cbor:"payload,omitempty"`
	Executed      bool      `json:"executed" bson:"executed" cbor:"executed"`
	Revoked       bool      `json:"revoked" bson:"revoked" cbor:"revoked"`
	QuorumReached bool      `json:"quorumReached" bson:"quorumReached" cbor:"quorumReached"`
	Confirmations int       `json:"confirmations" bson:"confirmations" cbor:"confirmations"`
	Revocations   int       `json:"revocations" bson:"revocations" cbor:"revocations"`
	ConfirmedBy   []Address `json:"confirmedBy" bson:"confirmedBy" cbor:"confirmedBy"`
	RevokedBy     []Address `json:"revokedBy" bson:"revokedBy" cbor:"revokedBy"`
	Status        TxStatus  `json:"status" bson:"status" cbor:"status"`
}
