package model

const GlobalConfigCollection = "custody_config"

// GlobalConfigDocument is the deployment-wide staking configuration.
// It is written once by init-config and read by every operation.
type GlobalConfigDocument struct {
	ID             string `bson:"_id"`
	MaxStake       uint32 `bson:"max_stake"`
	FreezePeriod   uint32 `bson:"freeze_period"`
	PointsPerStake uint32 `bson:"points_per_stake"`
}
