package entity

// FallbackPartID используется, если каталог недоступен или пуст.
const FallbackPartID = "example_part"

// CatalogEntry — деталь из базы знаний сервиса инспекции.
type CatalogEntry struct {
	PartID     string `json:"part_id"`
	PartNumber string `json:"part_number,omitempty"`
}

// Label возвращает подпись для списка выбора.
func (e CatalogEntry) Label() string {
	if e.PartNumber == "" {
		return e.PartID
	}
	return e.PartID + " (" + e.PartNumber + ")"
}

// Catalog — загруженный список деталей и выбранная по умолчанию.
type Catalog struct {
	Entries  []CatalogEntry
	Default  int
	Fallback bool
}

// NewCatalog строит каталог, предпочитая example_part в качестве значения по умолчанию.
// Пустой список заменяется синтетической записью.
func NewCatalog(entries []CatalogEntry) Catalog {
	if len(entries) == 0 {
		return FallbackCatalog()
	}
	cat := Catalog{Entries: append([]CatalogEntry(nil), entries...)}
	for i, e := range cat.Entries {
		if e.PartID == FallbackPartID {
			cat.Default = i
			break
		}
	}
	return cat
}

// FallbackCatalog возвращает каталог из одной записи example_part.
func FallbackCatalog() Catalog {
	return Catalog{
		Entries:  []CatalogEntry{{PartID: FallbackPartID}},
		Fallback: true,
	}
}

// DefaultPartID возвращает идентификатор детали по умолчанию.
func (c Catalog) DefaultPartID() string {
	if c.Default < 0 || c.Default >= len(c.Entries) {
		return FallbackPartID
	}
	return c.Entries[c.Default].PartID
}
