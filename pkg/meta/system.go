package meta

// Names of the self-describing metadata entity types. These are materialized
// in the default backend during bootstrap, before the generic add path is
// available, and host the registry's own rows.
const (
	PackagesEntity   = "packages"
	TagsEntity       = "tags"
	AttributesEntity = "attributes"
	EntitiesEntity   = "entities"
)

// Column (attribute) names of the metadata entity types. The registries and
// the bootstrap share these; they never appear as string literals elsewhere.
const (
	ColName        = "name"
	ColDescription = "description"
	ColParent      = "parent"

	ColIdentifier  = "identifier"
	ColLabel       = "label"
	ColObjectIRI   = "object_iri"
	ColRelationIRI = "relation_iri"
	ColCodeSystem  = "code_system"

	ColID          = "id"
	ColEntity      = "entity"
	ColDataType    = "data_type"
	ColNillable    = "nillable"
	ColIDAttribute = "id_attribute"
	ColRefEntity   = "ref_entity"
	ColSeq         = "seq"

	ColFullName = "full_name"
	ColPackage  = "package"
	ColAbstract = "abstract"
	ColBackend  = "backend"
)

// LocaleCol derives the column name for a per-locale label or description
// slot, e.g. LocaleCol(ColLabel, "en") == "label_en". Locale codes are data
// supplied by the LocaleProvider, not hardcoded names.
func LocaleCol(base, locale string) string {
	return base + "_" + locale
}

// PackagesEntityType describes the packages metadata table.
func PackagesEntityType() *EntityType {
	e := NewEntityType(PackagesEntity)
	e.AddAttribute(&Attribute{Name: ColName, DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: ColDescription, DataType: TypeText, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColParent, DataType: TypeXRef, Nillable: true, RefEntity: PackagesEntity})
	return e
}

// TagsEntityType describes the tags metadata table.
func TagsEntityType() *EntityType {
	e := NewEntityType(TagsEntity)
	e.AddAttribute(&Attribute{Name: ColIdentifier, DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: ColLabel, DataType: TypeString, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColObjectIRI, DataType: TypeText, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColRelationIRI, DataType: TypeText, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColCodeSystem, DataType: TypeText, Nillable: true})
	return e
}

// AttributesEntityType describes the attributes metadata table, with one
// label and one description slot per active locale.
func AttributesEntityType(locales []string) *EntityType {
	e := NewEntityType(AttributesEntity)
	e.AddAttribute(&Attribute{Name: ColID, DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: ColEntity, DataType: TypeXRef, RefEntity: EntitiesEntity})
	e.AddAttribute(&Attribute{Name: ColName, DataType: TypeString})
	e.AddAttribute(&Attribute{Name: ColDataType, DataType: TypeString})
	e.AddAttribute(&Attribute{Name: ColNillable, DataType: TypeBool})
	e.AddAttribute(&Attribute{Name: ColIDAttribute, DataType: TypeBool})
	e.AddAttribute(&Attribute{Name: ColRefEntity, DataType: TypeString, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColSeq, DataType: TypeInt})
	e.AddAttribute(&Attribute{Name: ColLabel, DataType: TypeString, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColDescription, DataType: TypeText, Nillable: true})
	for _, code := range locales {
		e.AddAttribute(&Attribute{Name: LocaleCol(ColLabel, code), DataType: TypeString, Nillable: true})
		e.AddAttribute(&Attribute{Name: LocaleCol(ColDescription, code), DataType: TypeText, Nillable: true})
	}
	return e
}

// EntitiesEntityType describes the entities metadata table, with one label
// and one description slot per active locale.
func EntitiesEntityType(locales []string) *EntityType {
	e := NewEntityType(EntitiesEntity)
	e.AddAttribute(&Attribute{Name: ColFullName, DataType: TypeString, IDAttribute: true})
	e.AddAttribute(&Attribute{Name: ColPackage, DataType: TypeXRef, Nillable: true, RefEntity: PackagesEntity})
	e.AddAttribute(&Attribute{Name: ColAbstract, DataType: TypeBool})
	e.AddAttribute(&Attribute{Name: ColBackend, DataType: TypeString, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColLabel, DataType: TypeString, Nillable: true})
	e.AddAttribute(&Attribute{Name: ColDescription, DataType: TypeText, Nillable: true})
	for _, code := range locales {
		e.AddAttribute(&Attribute{Name: LocaleCol(ColLabel, code), DataType: TypeString, Nillable: true})
		e.AddAttribute(&Attribute{Name: LocaleCol(ColDescription, code), DataType: TypeText, Nillable: true})
	}
	return e
}

// SystemEntityTypes returns the self-describing definitions in their fixed
// bootstrap order: packages, tags, attributes, entities.
func SystemEntityTypes(locales []string) []*EntityType {
	return []*EntityType{
		PackagesEntityType(),
		TagsEntityType(),
		AttributesEntityType(locales),
		EntitiesEntityType(locales),
	}
}

// IsSystemEntity reports whether name is one of the self-describing metadata
// entity types.
func IsSystemEntity(name string) bool {
	switch name {
	case PackagesEntity, TagsEntity, AttributesEntity, EntitiesEntity:
		return true
	}
	return false
}
