package model

const CustodyRecordCollection = "custody_record"

// CustodyRecordDocument exists for an asset if and only if the asset is
// transfer-locked by this service. The asset id is the primary key, so a
// second record for the same asset is rejected by the store.
type CustodyRecordDocument struct {
	AssetID  string `bson:"_id"`
	Owner    string `bson:"owner"`
	StakedAt int64  `bson:"staked_at"` // unix seconds
}

func NewCustodyRecordDocument(assetID, owner string, stakedAt int64) *CustodyRecordDocument {
	return &CustodyRecordDocument{
		AssetID:  assetID,
		Owner:    owner,
		StakedAt: stakedAt,
	}
}
