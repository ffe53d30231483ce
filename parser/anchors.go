package parser

// Field names shared by both anchor maps.
const (
	fieldRightsholder      = "rightsholder"
	fieldLocation          = "location"
	fieldCadastralNumber   = "cadastral_number"
	fieldArea              = "area"
	fieldPlanningProject   = "planning_project"
	fieldUseKinds          = "use_kinds"
	fieldBuildingsPresence = "buildings_presence"
	fieldBuildingsInfo     = "buildings_info"
	fieldHeritageInfo      = "heritage_info"
)

type span int

const (
	spanLine      span = iota // the value is exactly one line
	spanUntilStop             // accumulate lines until the stop anchor
)

// anchor locates one field: the first line starting with start marks the
// anchor, the value begins offset lines below it, and spanUntilStop fields
// run until (excluding) the first line starting with stop. Matching is by
// prefix, not equality: the documents carry trailing numbering, colons and
// extraction noise after the fixed phrases.
type anchor struct {
	start  string
	stop   string
	offset int
	span   span
}

// ruAnchors covers the Moscow city template (document numbers RU77-...).
var ruAnchors = map[string]anchor{
	fieldRightsholder:      {start: "Градостроительный план подготовлен", offset: 1, span: spanLine},
	fieldLocation:          {start: "Местонахождение земельного участка", stop: "Кадастровый номер", offset: 1, span: spanUntilStop},
	fieldCadastralNumber:   {start: "Кадастровый номер земельного участка", offset: 1, span: spanLine},
	fieldArea:              {start: "Площадь земельного участка", offset: 1, span: spanLine},
	fieldPlanningProject:   {start: "Проект планировки территории", offset: 1, span: spanLine},
	fieldUseKinds:          {start: "Основные виды разрешенного использования", stop: "Условно разрешенные виды", offset: 1, span: spanUntilStop},
	fieldBuildingsPresence: {start: "Наличие объектов капитального строительства", offset: 1, span: spanLine},
	fieldBuildingsInfo:     {start: "Характеристики объектов капитального строительства", stop: "Объекты культурного наследия", offset: 1, span: spanUntilStop},
	fieldHeritageInfo:      {start: "Объекты культурного наследия", stop: "Чертеж градостроительного плана", offset: 1, span: spanUntilStop},
}

// rfAnchors covers the federal template with numbered sections (document
// numbers РФ-77-...).
var rfAnchors = map[string]anchor{
	fieldRightsholder:      {start: "Градостроительный план земельного участка подготовлен на основании", offset: 1, span: spanLine},
	fieldLocation:          {start: "Описание местоположения земельного участка", stop: "Кадастровый номер", offset: 1, span: spanUntilStop},
	fieldCadastralNumber:   {start: "Кадастровый номер земельного участка", offset: 1, span: spanLine},
	fieldArea:              {start: "Площадь земельного участка", offset: 1, span: spanLine},
	fieldPlanningProject:   {start: "Реквизиты проекта планировки территории", offset: 1, span: spanLine},
	fieldUseKinds:          {start: "Основные виды разрешенного использования земельного участка", stop: "Условно разрешенные виды", offset: 1, span: spanUntilStop},
	fieldBuildingsPresence: {start: "3. Объекты капитального строительства", offset: 1, span: spanLine},
	fieldBuildingsInfo:     {start: "3.1. Объекты капитального строительства", stop: "3.2.", offset: 1, span: spanUntilStop},
	fieldHeritageInfo:      {start: "3.2. Объекты, включенные в единый государственный реестр", stop: "4.", offset: 1, span: spanUntilStop},
}

// anchorsFor returns the anchor map of a variant, or nil for an unknown
// variant, which skips anchor extraction entirely.
func anchorsFor(v Variant) map[string]anchor {
	switch v {
	case VariantRU:
		return ruAnchors
	case VariantRF:
		return rfAnchors
	}
	return nil
}
