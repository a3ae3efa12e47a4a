package model

import "math"

const UserLedgerCollection = "user_ledger"

// MaxLedgerPoints is the largest balance every store can persist. BSON has
// no unsigned 64-bit integer, so points are stored as int64.
const MaxLedgerPoints uint64 = math.MaxInt64

type UserLedgerDocument struct {
	Owner        string `bson:"_id"` // Primary key
	Points       uint64 `bson:"points"`
	AmountStaked uint32 `bson:"amount_staked"`
}

func NewUserLedgerDocument(owner string) *UserLedgerDocument {
	return &UserLedgerDocument{
		Owner: owner,
	}
}
