package schema

// SyncReferenceLabelTable represents the 'sync.referencelabel' table.
type SyncReferenceLabelTable struct {
	Table     string
	CatalogID string
	EntityID  string
	Label     string
	UpdatedAt string
}

// SyncReferenceLabel is the schema definition for sync.referencelabel
var SyncReferenceLabel = SyncReferenceLabelTable{
	Table:     "sync.referencelabel",
	CatalogID: "catalogid",
	EntityID:  "entityid",
	Label:     "label",
	UpdatedAt: "updatedat",
}
