package registryclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrNotAssetOwner      = errors.New("caller does not own the asset")
	ErrAlreadyDelegated   = errors.New("lock authority already delegated")
	ErrAuthorityMismatch  = errors.New("authority does not match the lock authority")
	ErrAlreadyLocked      = errors.New("asset already transfer-locked")
	ErrNotLocked          = errors.New("asset is not transfer-locked")
	ErrLocked             = errors.New("asset is transfer-locked")
	ErrAssetAlreadyExists = errors.New("asset already registered")
)

// InMemoryRegistry keeps asset ownership and transfer locks in process. It
// backs the in-memory server mode and tests.
type InMemoryRegistry struct {
	mu           sync.Mutex
	assets       map[string]*AssetState
	autoRegister bool
}

var _ RegistryInterface = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry returns an empty registry. With autoRegister, an
// unknown asset is registered to the first owner that delegates it.
func NewInMemoryRegistry(autoRegister bool) *InMemoryRegistry {
	return &InMemoryRegistry{
		assets:       make(map[string]*AssetState),
		autoRegister: autoRegister,
	}
}

func (r *InMemoryRegistry) RegisterAsset(assetID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[assetID]; ok {
		return fmt.Errorf("%w: %s", ErrAssetAlreadyExists, assetID)
	}
	r.assets[assetID] = &AssetState{AssetID: assetID, Owner: owner}
	return nil
}

// Transfer moves an unlocked asset to a new owner.
func (r *InMemoryRegistry) Transfer(assetID, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, err := r.get(assetID)
	if err != nil {
		return err
	}
	if asset.Owner != from {
		return fmt.Errorf("%w: %s", ErrNotAssetOwner, assetID)
	}
	if asset.Locked {
		return fmt.Errorf("%w: %s", ErrLocked, assetID)
	}
	asset.Owner = to
	return nil
}

func (r *InMemoryRegistry) DelegateLockAuthority(_ context.Context, assetID, owner, delegate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[assetID]; !ok && r.autoRegister {
		r.assets[assetID] = &AssetState{AssetID: assetID, Owner: owner}
	}

	asset, err := r.get(assetID)
	if err != nil {
		return err
	}
	if asset.Owner != owner {
		return fmt.Errorf("%w: %s", ErrNotAssetOwner, assetID)
	}
	if asset.LockAuthority != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyDelegated, assetID)
	}
	asset.LockAuthority = delegate
	return nil
}

func (r *InMemoryRegistry) SetTransferLock(_ context.Context, assetID string, locked bool, authority string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, err := r.get(assetID)
	if err != nil {
		return err
	}
	if asset.LockAuthority == "" || asset.LockAuthority != authority {
		return fmt.Errorf("%w: %s", ErrAuthorityMismatch, assetID)
	}
	if locked && asset.Locked {
		return fmt.Errorf("%w: %s", ErrAlreadyLocked, assetID)
	}
	if !locked && !asset.Locked {
		return fmt.Errorf("%w: %s", ErrNotLocked, assetID)
	}
	asset.Locked = locked
	return nil
}

func (r *InMemoryRegistry) RevokeLockAuthority(_ context.Context, assetID, authority string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, err := r.get(assetID)
	if err != nil {
		return err
	}
	if asset.LockAuthority == "" || asset.LockAuthority != authority {
		return fmt.Errorf("%w: %s", ErrAuthorityMismatch, assetID)
	}
	if asset.Locked {
		return fmt.Errorf("%w: %s", ErrLocked, assetID)
	}
	asset.LockAuthority = ""
	return nil
}

func (r *InMemoryRegistry) GetAsset(_ context.Context, assetID string) (*AssetState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, err := r.get(assetID)
	if err != nil {
		return nil, err
	}
	cp := *asset
	return &cp, nil
}

func (r *InMemoryRegistry) get(assetID string) (*AssetState, error) {
	asset, ok := r.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	return asset, nil
}
