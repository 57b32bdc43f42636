package models

// ColumnMetadata describes one source column as supplied by the external
// metadata provider. It is read-only input to the mapping pipeline and is
// never mutated or persisted by this subsystem.
type ColumnMetadata struct {
	Name            string `json:"name"`
	DataType        string `json:"data_type"`
	Nullable        bool   `json:"nullable"`
	OrdinalPosition int    `json:"ordinal_position"`
	Classification  string `json:"classification,omitempty"` // externally assigned, e.g. "sensitive"
	Description     string `json:"description,omitempty"`
}

// ClassificationSensitive is the external classification value that marks a
// column as carrying sensitive data.
const ClassificationSensitive = "sensitive"
