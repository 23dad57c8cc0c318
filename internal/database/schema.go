package database

// Table identifies one of the fact tables. The value is the SQL table name and
// the MongoDB collection name.
type Table string

const (
	Production        Table = "production_productioncropslivestock"
	ProducerPrices    Table = "production_producerprices"
	Fertilizers       Table = "production_fertilizersbyproduct"
	LandUse           Table = "production_landuse"
	Employment        Table = "production_employmentagriculture"
	ForeignInvestment Table = "production_foreigndirectinvestmentagriculture"
)

// ColumnKind is the storage type of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	}
	return "unknown"
}

// TableSchema lists the columns of a fact table.
type TableSchema struct {
	Name    Table
	columns map[string]ColumnKind
}

// Kind reports the kind of a column and whether the table has it.
func (s *TableSchema) Kind(column string) (ColumnKind, bool) {
	k, ok := s.columns[column]
	return k, ok
}

var catalog = map[Table]*TableSchema{
	Production: {Name: Production, columns: map[string]ColumnKind{
		"id":                  KindInt,
		"country":             KindText,
		"product":             KindText,
		"year":                KindInt,
		"production_quantity": KindFloat,
		"unit":                KindText,
	}},
	ProducerPrices: {Name: ProducerPrices, columns: map[string]ColumnKind{
		"id":       KindInt,
		"country":  KindText,
		"product":  KindText,
		"year":     KindInt,
		"price":    KindFloat,
		"currency": KindText,
	}},
	Fertilizers: {Name: Fertilizers, columns: map[string]ColumnKind{
		"id":              KindInt,
		"country":         KindText,
		"fertilizer_type": KindText,
		"year":            KindInt,
		"quantity":        KindFloat,
		"unit":            KindText,
	}},
	LandUse: {Name: LandUse, columns: map[string]ColumnKind{
		"id":                     KindInt,
		"country":                KindText,
		"year":                   KindInt,
		"land_area_agricultural": KindFloat,
		"land_area_total":        KindFloat,
		"unit":                   KindText,
	}},
	Employment: {Name: Employment, columns: map[string]ColumnKind{
		"id":                     KindInt,
		"country":                KindText,
		"year":                   KindInt,
		"employment_agriculture": KindFloat,
		"unit":                   KindText,
		"source":                 KindText,
	}},
	ForeignInvestment: {Name: ForeignInvestment, columns: map[string]ColumnKind{
		"id":                KindInt,
		"investing_country": KindText,
		"receiving_country": KindText,
		"year":              KindInt,
		"investment_amount": KindFloat,
		"currency":          KindText,
	}},
}

// Lookup returns the schema of a known table.
func Lookup(t Table) (*TableSchema, bool) {
	s, ok := catalog[t]
	return s, ok
}

/*
MongoDB document structure (one collection per table, named like the table):

production_productioncropslivestock: {
  _id: <int>,            // row id, defines raw row order
  country: <string>,
  product: <string>,
  year: <int>,
  production_quantity: <double|null>,
  unit: <string|null>
}

The other collections follow the same rule: _id holds the relational id and
every remaining column keeps its SQL name.
*/
