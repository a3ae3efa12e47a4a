package registryclient

import "context"

// AssetState is the registry's view of an asset.
type AssetState struct {
	AssetID string `json:"asset_id"`
	Owner   string `json:"owner"`
	Locked  bool   `json:"locked"`
	// LockAuthority is the only identity allowed to toggle the transfer lock.
	// Empty when no lock capability is delegated.
	LockAuthority string `json:"lock_authority,omitempty"`
}

type RegistryInterface interface {
	// DelegateLockAuthority names delegate as the sole authority over the
	// asset's transfer lock. owner must be the current asset owner.
	DelegateLockAuthority(ctx context.Context, assetID, owner, delegate string) error
	// SetTransferLock toggles transferability. authority must match the
	// delegated lock authority.
	SetTransferLock(ctx context.Context, assetID string, locked bool, authority string) error
	// RevokeLockAuthority removes the delegation once the asset is unlocked.
	RevokeLockAuthority(ctx context.Context, assetID, authority string) error
	GetAsset(ctx context.Context, assetID string) (*AssetState, error)
}
