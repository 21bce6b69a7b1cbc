package schema

// CRMFieldMetaTable represents the 'crm.fieldmeta' table (field descriptors per entity).
type CRMFieldMetaTable struct {
	Table     string
	EntityKey string
	FieldID   string
	FieldType string
	Title     string
	Settings  string
	Labels    string
}

// CRMFieldMeta is the schema definition for crm.fieldmeta
var CRMFieldMeta = CRMFieldMetaTable{
	Table:     "crm.fieldmeta",
	EntityKey: "entitykey",
	FieldID:   "fieldid",
	FieldType: "fieldtype",
	Title:     "title",
	Settings:  "settings",
	Labels:    "labels",
}

// CRMFieldEnumTable represents the 'crm.fieldenum' table (enum maps fetched separately).
type CRMFieldEnumTable struct {
	Table     string
	EntityKey string
	FieldID   string
	EnumMap   string
}

// CRMFieldEnum is the schema definition for crm.fieldenum
var CRMFieldEnum = CRMFieldEnumTable{
	Table:     "crm.fieldenum",
	EntityKey: "entitykey",
	FieldID:   "fieldid",
	EnumMap:   "enummap",
}
