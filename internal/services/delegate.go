package services

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const delegateSeed = "stake"

// DeriveCustodyDelegate returns the identity the registry accepts as lock
// authority for assets that owner placed in custody under configID. It is a
// pure function of its inputs, so unstake recomputes it instead of storing
// it.
func DeriveCustodyDelegate(configID, owner string) string {
	buf := make([]byte, 0, len(delegateSeed)+len(configID)+len(owner)+2)
	buf = append(buf, delegateSeed...)
	buf = append(buf, 0)
	buf = append(buf, configID...)
	buf = append(buf, 0)
	buf = append(buf, owner...)

	return chainhash.DoubleHashH(buf).String()
}
