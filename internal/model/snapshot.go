package model

// Snapshot is the complete persisted state of an engine.
type Snapshot struct {
	Quorum            int           `json:"quorum" bson:"quorum" cbor:"quorum"`
	RevocationRule    string        `json:"revocationRule" bson:"revocationRule" cbor:"revocationRule"`
	AutoExecute       bool          `json:"autoExecute" bson:"autoExecute" cbor:"autoExecute"`
	Owners            []Owner       `json:"owners" bson:"owners" cbor:"owners"`
	Transactions      []Transaction `json:"transactions" bson:"transactions" cbor:"transactions"`
	LastEventSequence uint64        `json:"lastEventSequence" bson:"lastEventSequence" cbor:"lastEventSequence"`
}
