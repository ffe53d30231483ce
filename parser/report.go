package parser

import (
	"sort"
	"time"
)

func rawValue(r Raw) any {
	if r.Ok() {
		return r.Value
	}
	return nil
}

func isoDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func sortedSubzoneKeys(subzones map[int]Subzone) []int {
	keys := make([]int, 0, len(subzones))
	for k := range subzones {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// subzoneColumn collects one per-subzone attribute into a list ordered by
// subzone key, the whole-parcel sentinel first.
func subzoneColumn(subzones map[int]Subzone, keys []int, pick func(Subzone) string) any {
	if len(keys) == 0 {
		return nil
	}
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, pick(subzones[k]))
	}
	return values
}

// assemble lays every normalized value out into the fixed report sections.
func (p *Parser) assemble(src Source, number string, v Variant, fields map[string]Raw, subzones map[int]Subzone, unregulated bool) Report {
	start, startOK := issueDate(src.Text)
	var end time.Time
	if startOK {
		end = expiryDate(start)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	status := permitStatus(src.Text, end, now())

	holder, holderType := p.normalizeRightsholder(fields[fieldRightsholder], v)
	settlement, street, district := p.normalizeLocation(fields[fieldLocation])
	useCodes, useClass := normalizeUseKinds(fields[fieldUseKinds])

	var docNumber any
	if number != "" {
		docNumber = number
	}

	keys := sortedSubzoneKeys(subzones)
	count := 0
	for _, k := range keys {
		if k != WholeParcelKey {
			count++
		}
	}
	floorTotal, floorResidential, areaTotal, underground := aggregates(subzones)

	return Report{Sections: []Section{
		{Title: SectionParticulars, Fields: []Field{
			{"Номер", docNumber},
			{"Дата выдачи", isoDate(start)},
			{"Действует до", isoDate(end)},
			{"Статус", status},
			{"Правообладатель", holder},
			{"Тип правообладателя", holderType},
			{"Реквизиты проекта планировки территории", rawValue(fields[fieldPlanningProject])},
		}},
		{Title: SectionTerritory, Fields: []Field{
			{"Кадастровый номер", rawValue(fields[fieldCadastralNumber])},
			{"Площадь участка, кв. м", normalizeParcelArea(fields[fieldArea])},
			{"Поселение", settlement},
			{"Улица", street},
			{"Административный округ", district},
		}},
		{Title: SectionUseKinds, Fields: []Field{
			{"Коды видов разрешенного использования", useCodes},
			{"Классификация", useClass},
		}},
		{Title: SectionAreas, Fields: []Field{
			{"Количество подзон", count},
			{"Номера подзон", subzoneColumn(subzones, keys, func(s Subzone) string { return s.Number })},
			{"Площади подзон", subzoneColumn(subzones, keys, func(s Subzone) string { return s.Area })},
		}},
		{Title: SectionLimits, Fields: []Field{
			{"Назначение", subzoneColumn(subzones, keys, func(s Subzone) string { return s.Description })},
			{"Максимальная высота, м", subzoneColumn(subzones, keys, func(s Subzone) string { return s.MaxHeight })},
			{"Предельное количество этажей", subzoneColumn(subzones, keys, func(s Subzone) string { return s.MaxFloors })},
			{"Максимальный процент застройки", subzoneColumn(subzones, keys, func(s Subzone) string { return s.MaxPercent })},
			{"Предельная плотность застройки", subzoneColumn(subzones, keys, func(s Subzone) string { return s.MaxDensity })},
		}},
		{Title: SectionBuildings, Fields: []Field{
			{"Суммарная поэтажная площадь, кв. м", floorTotal},
			{"В том числе жилой части, кв. м", floorResidential},
			{"Общая площадь, кв. м", areaTotal},
			{"Площадь подземного пространства, кв. м", underground},
		}},
		{Title: SectionExisting, Fields: []Field{
			{"Наличие", rawValue(fields[fieldBuildingsPresence])},
			{"Характеристика", rawValue(fields[fieldBuildingsInfo])},
			{"Объекты, не подлежащие регулированию", unregulated},
		}},
		{Title: SectionHeritage, Fields: []Field{
			{"Сведения", rawValue(fields[fieldHeritageInfo])},
		}},
	}}
}
