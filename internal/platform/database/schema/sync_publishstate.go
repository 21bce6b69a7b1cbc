package schema

// SyncPublishStateTable represents the 'sync.publishstate' table.
type SyncPublishStateTable struct {
	Table       string
	SourceID    string
	ListingID   string
	ContentHash string
	DraftRef    string
	CreatedAt   string
	SyncedAt    string
	HiddenAt    string
}

// SyncPublishState is the schema definition for sync.publishstate
var SyncPublishState = SyncPublishStateTable{
	Table:       "sync.publishstate",
	SourceID:    "sourceid",
	ListingID:   "listingid",
	ContentHash: "contenthash",
	DraftRef:    "draftref",
	CreatedAt:   "createdat",
	SyncedAt:    "syncedat",
	HiddenAt:    "hiddenat",
}

func (t SyncPublishStateTable) Columns() []string {
	return []string{t.SourceID, t.ListingID, t.ContentHash, t.DraftRef, t.CreatedAt, t.SyncedAt, t.HiddenAt}
}
