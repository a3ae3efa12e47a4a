package memdb

import (
	"cmp"
	"slices"
	"strings"

	"github.com/babylonlabs-io/custody-engine/internal/db/model"
)

func sortByStakedAt(records []*model.CustodyRecordDocument) {
	slices.SortFunc(records, func(a, b *model.CustodyRecordDocument) int {
		return cmp.Or(
			cmp.Compare(a.StakedAt, b.StakedAt),
			strings.Compare(a.AssetID, b.AssetID),
		)
	})
}
