package types

// SecondsPerDay is the length of one custody day.
const SecondsPerDay = 86400

// CustodyState is the per-asset state. UNSTAKED has no record; CUSTODY has
// exactly one.
type CustodyState string

const (
	StateUnstaked CustodyState = "UNSTAKED"
	StateCustody  CustodyState = "CUSTODY"
)

func (s CustodyState) String() string {
	return string(s)
}

type CustodyEventType string

const (
	EventAssetStaked   CustodyEventType = "ASSET_STAKED"
	EventAssetUnstaked CustodyEventType = "ASSET_UNSTAKED"
)

func (e CustodyEventType) String() string {
	return string(e)
}

// CustodyEvent is published to the queue after a stake or unstake commits.
type CustodyEvent struct {
	EventType       CustodyEventType `json:"event_type"`
	Owner           string           `json:"owner"`
	AssetID         string           `json:"asset_id"`
	StakedAt        int64            `json:"staked_at"`
	TimeElapsedDays uint64           `json:"time_elapsed_days,omitempty"`
	PointsEarned    uint64           `json:"points_earned,omitempty"`
	Timestamp       int64            `json:"timestamp"`
}

// ElapsedDays returns the number of whole custody days between stakedAt
// and now, both in unix seconds. A now before stakedAt counts as zero days.
func ElapsedDays(stakedAt, now int64) uint64 {
	if now <= stakedAt {
		return 0
	}
	return uint64(now-stakedAt) / SecondsPerDay
}
