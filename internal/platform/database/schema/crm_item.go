package schema

// CRMItemTable represents the 'crm.item' table, the read-only mirror of CRM records.
type CRMItemTable struct {
	Table      string
	ID         string
	StageID    string
	CategoryID string
	CreatedAt  string
	UpdatedAt  string
	Raw        string
}

// CRMItem is the schema definition for crm.item
var CRMItem = CRMItemTable{
	Table:      "crm.item",
	ID:         "id",
	StageID:    "stageid",
	CategoryID: "categoryid",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
	Raw:        "raw",
}
