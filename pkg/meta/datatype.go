package meta

// DataType enumerates the value kinds an attribute can hold.
type DataType string

// Supported attribute data types.
const (
	TypeBool        DataType = "bool"
	TypeCategorical DataType = "categorical"
	TypeCompound    DataType = "compound"
	TypeDate        DataType = "date"
	TypeDateTime    DataType = "datetime"
	TypeDecimal     DataType = "decimal"
	TypeEmail       DataType = "email"
	TypeEnum        DataType = "enum"
	TypeFile        DataType = "file"
	TypeHTML        DataType = "html"
	TypeHyperlink   DataType = "hyperlink"
	TypeInt         DataType = "int"
	TypeLong        DataType = "long"
	TypeMRef        DataType = "mref"
	TypeScript      DataType = "script"
	TypeString      DataType = "string"
	TypeText        DataType = "text"
	TypeXRef        DataType = "xref"
)

// knownTypes lists the data types Validate accepts.
var knownTypes = map[DataType]bool{
	TypeBool: true, TypeCategorical: true, TypeCompound: true,
	TypeDate: true, TypeDateTime: true, TypeDecimal: true,
	TypeEmail: true, TypeEnum: true, TypeFile: true,
	TypeHTML: true, TypeHyperlink: true, TypeInt: true,
	TypeLong: true, TypeMRef: true, TypeScript: true,
	TypeString: true, TypeText: true, TypeXRef: true,
}

// IsReference reports whether the type points at another entity type and
// therefore requires a RefEntity target.
func (t DataType) IsReference() bool {
	switch t {
	case TypeXRef, TypeMRef, TypeCategorical, TypeFile:
		return true
	}
	return false
}

// Valid reports whether t is a known data type. The zero value is not valid;
// callers that want a default should set TypeString explicitly.
func (t DataType) Valid() bool {
	return knownTypes[t]
}
