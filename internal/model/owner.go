package model

// Owner is a read-only view of a registered owner.
type Owner struct {
	ID         Address   `json:"id" bson:"id" cbor:"id"`
	Supporters []Address `json:"supporters" bson:"supporters" cbor:"supporters"`
	TrustValue int       `json:"trustValue" bson:"-" cbor:"-"`
	Trusted    bool      `json:"trusted" bson:"-" cbor:"-"`
}

func (o Owner) SupporterCount() int {
	return len(o.Supporters)
}
