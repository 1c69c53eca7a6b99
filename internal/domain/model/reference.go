package model

import "fmt"

// ReferenceKind — вид справочника PGV. Закрытое множество из трёх значений,
// получается только через ParseReferenceKind.
type ReferenceKind string

const (
	// KindStandards — стандарты строительства (стоимость м² постройки).
	KindStandards ReferenceKind = "standards"
	// KindStreets — стоимость м² земли по улице.
	KindStreets ReferenceKind = "streets"
	// KindRates — ставка IPTU по категории использования.
	KindRates ReferenceKind = "rates"
)

// ReferenceKinds возвращает все виды справочников.
func ReferenceKinds() []ReferenceKind {
	return []ReferenceKind{KindStandards, KindStreets, KindRates}
}

// ParseReferenceKind разбирает имя справочника из пути запроса.
func ParseReferenceKind(s string) (ReferenceKind, bool) {
	switch ReferenceKind(s) {
	case KindStandards, KindStreets, KindRates:
		return ReferenceKind(s), true
	default:
		return "", false
	}
}

// Table возвращает имя таблицы справочника.
func (k ReferenceKind) Table() string {
	switch k {
	case KindStandards:
		return "construction_standards"
	case KindStreets:
		return "street_values"
	case KindRates:
		return "tax_rates"
	}
	panic(fmt.Sprintf("неизвестный справочник %q", string(k)))
}

// KeyField возвращает имя ключевой колонки (уникальной).
func (k ReferenceKind) KeyField() string {
	switch k {
	case KindStandards:
		return "description"
	case KindStreets:
		return "street"
	case KindRates:
		return "usage"
	}
	panic(fmt.Sprintf("неизвестный справочник %q", string(k)))
}

// ValueField возвращает имя колонки значения.
func (k ReferenceKind) ValueField() string {
	switch k {
	case KindStandards, KindStreets:
		return "unit_value"
	case KindRates:
		return "rate"
	}
	panic(fmt.Sprintf("неизвестный справочник %q", string(k)))
}

// ReferenceEntry — строка справочника: ключ и числовое значение.
type ReferenceEntry struct {
	ID    int64
	Kind  ReferenceKind
	Key   string
	Value float64
}

// ToMap возвращает JSON-представление строки в колонках справочника.
func (e *ReferenceEntry) ToMap() map[string]any {
	return map[string]any{
		"id":                e.ID,
		e.Kind.KeyField():   e.Key,
		e.Kind.ValueField(): e.Value,
	}
}

// ParseReferenceEntry строит строку справочника из JSON-полей.
// Ключ обязателен, значение — положительное число.
func ParseReferenceEntry(kind ReferenceKind, fields map[string]any) (*ReferenceEntry, error) {
	keyField, valueField := kind.KeyField(), kind.ValueField()

	key, err := coerceText(fields[keyField])
	if err != nil {
		return nil, &FieldError{Field: keyField, Reason: err.Error()}
	}
	if key == nil {
		return nil, &FieldError{Field: keyField, Reason: "обязательное поле"}
	}

	value, err := coerceNumber(fields[valueField])
	if err != nil {
		return nil, &FieldError{Field: valueField, Reason: err.Error()}
	}
	if value == nil || *value <= 0 {
		return nil, &FieldError{Field: valueField, Reason: "ожидается положительное число"}
	}

	return &ReferenceEntry{
		Kind:  kind,
		Key:   *key,
		Value: *value,
	}, nil
}
