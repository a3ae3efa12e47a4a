package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
	"github.com/brianvoe/gofakeit/v7"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomIdentity returns a random user or asset identifier.
func RandomIdentity(t *testing.T) string {
	t.Helper()
	return gofakeit.UUID()
}

// RandomCustodyRecord returns a record for owner with a random asset and a
// stake time somewhere in the past.
func RandomCustodyRecord(t *testing.T, owner string) *model.CustodyRecordDocument {
	t.Helper()
	return model.NewCustodyRecordDocument(
		gofakeit.UUID(),
		owner,
		gofakeit.PastDate().Unix(),
	)
}
