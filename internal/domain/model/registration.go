package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Registration — регистрационная запись REURB: заявитель, супруг(а),
// текущий адрес, объект недвижимости, смежные участки и социальные данные.
// Все описательные поля независимо nullable.
type Registration struct {
	// ID — первичный ключ
	ID int64

	// --- Заявитель ---

	ReqNome          *string
	ReqCPF           *string
	ReqRG            *string
	ReqDataNasc      *string
	ReqNacionalidade *string
	ReqEstadoCivil   *string

	// --- Супруг(а) и контакты ---

	ConjNome     *string
	ConjCPF      *string
	ReqProfissao *string
	ReqTelefone  *string
	ReqEmail     *string

	// --- Текущий адрес заявителя ---

	ReqCEPAtual         *string
	ReqLogradouroAtual  *string
	ReqNumeroAtual      *string
	ReqComplementoAtual *string
	ReqBairroAtual      *string
	ReqCidadeAtual      *string
	ReqUFAtual          *string

	// --- Объект недвижимости ---

	ImovelCEP            *string
	ImovelLogradouro     *string
	ImovelNumero         *string
	ImovelComplemento    *string
	ImovelBairro         *string
	ImovelCidade         *string
	ImovelUF             *string
	InscricaoImobiliaria *string
	ImovelAreaTotal      *float64
	ImovelAreaConstruida *float64
	ImovelUso            *string
	ImovelTipoConstrucao *string
	ImovelDataOcupacao   *string
	ImovelFormaOcupacao  *string
	ImovelDocsPosse      *string
	ImovelFotos          *string
	ImovelCroqui         *string

	// --- Смежные участки ---

	ConfrontanteLd     *string
	ConfrontanteLe     *string
	ConfrontanteFundo  *string
	ConfrontanteFrente *string

	// --- Социальные данные и риски ---

	ReurbFinalidadeMoradia *string
	ReurbRendaFamiliar     *float64
	ReurbPropriedade       *string
	ReurbInfraNecessaria   *string
	ReurbRiscos            *string
	ReurbRiscosDescricao   *string
	ReurbOutroImovel       *string
	ReurbCadunico          *string
	TipoReurb              *string

	// CreatedAt — data_criacao, время создания записи
	CreatedAt time.Time
	// UpdatedAt — data_atualizacao, время последнего изменения
	UpdatedAt time.Time
}

// Поля записи, которые нельзя изменить через API.
const (
	FieldID        = "id"
	FieldCreatedAt = "data_criacao"
	FieldUpdatedAt = "data_atualizacao"
)

// FieldKind — тип значения поля записи.
type FieldKind int

const (
	// FieldText — текстовое поле.
	FieldText FieldKind = iota
	// FieldNumber — числовое поле (float64).
	FieldNumber
)

// Field — описание одного разрешённого поля регистрационной записи:
// имя колонки, тип и доступ к значению в структуре.
type Field struct {
	Name string
	Kind FieldKind
	text func(r *Registration) **string
	num  func(r *Registration) **float64
}

func textField(name string, acc func(r *Registration) **string) Field {
	return Field{Name: name, Kind: FieldText, text: acc}
}

func numberField(name string, acc func(r *Registration) **float64) Field {
	return Field{Name: name, Kind: FieldNumber, num: acc}
}

// registrationFields — список разрешённых полей в порядке колонок таблицы.
var registrationFields = []Field{
	textField("req_nome", func(r *Registration) **string { return &r.ReqNome }),
	textField("req_cpf", func(r *Registration) **string { return &r.ReqCPF }),
	textField("req_rg", func(r *Registration) **string { return &r.ReqRG }),
	textField("req_data_nasc", func(r *Registration) **string { return &r.ReqDataNasc }),
	textField("req_nacionalidade", func(r *Registration) **string { return &r.ReqNacionalidade }),
	textField("req_estado_civil", func(r *Registration) **string { return &r.ReqEstadoCivil }),
	textField("conj_nome", func(r *Registration) **string { return &r.ConjNome }),
	textField("conj_cpf", func(r *Registration) **string { return &r.ConjCPF }),
	textField("req_profissao", func(r *Registration) **string { return &r.ReqProfissao }),
	textField("req_telefone", func(r *Registration) **string { return &r.ReqTelefone }),
	textField("req_email", func(r *Registration) **string { return &r.ReqEmail }),
	textField("req_cep_atual", func(r *Registration) **string { return &r.ReqCEPAtual }),
	textField("req_logradouro_atual", func(r *Registration) **string { return &r.ReqLogradouroAtual }),
	textField("req_numero_atual", func(r *Registration) **string { return &r.ReqNumeroAtual }),
	textField("req_complemento_atual", func(r *Registration) **string { return &r.ReqComplementoAtual }),
	textField("req_bairro_atual", func(r *Registration) **string { return &r.ReqBairroAtual }),
	textField("req_cidade_atual", func(r *Registration) **string { return &r.ReqCidadeAtual }),
	textField("req_uf_atual", func(r *Registration) **string { return &r.ReqUFAtual }),
	textField("imovel_cep", func(r *Registration) **string { return &r.ImovelCEP }),
	textField("imovel_logradouro", func(r *Registration) **string { return &r.ImovelLogradouro }),
	textField("imovel_numero", func(r *Registration) **string { return &r.ImovelNumero }),
	textField("imovel_complemento", func(r *Registration) **string { return &r.ImovelComplemento }),
	textField("imovel_bairro", func(r *Registration) **string { return &r.ImovelBairro }),
	textField("imovel_cidade", func(r *Registration) **string { return &r.ImovelCidade }),
	textField("imovel_uf", func(r *Registration) **string { return &r.ImovelUF }),
	textField("inscricao_imobiliaria", func(r *Registration) **string { return &r.InscricaoImobiliaria }),
	numberField("imovel_area_total", func(r *Registration) **float64 { return &r.ImovelAreaTotal }),
	numberField("imovel_area_construida", func(r *Registration) **float64 { return &r.ImovelAreaConstruida }),
	textField("imovel_uso", func(r *Registration) **string { return &r.ImovelUso }),
	textField("imovel_tipo_construcao", func(r *Registration) **string { return &r.ImovelTipoConstrucao }),
	textField("imovel_data_ocupacao", func(r *Registration) **string { return &r.ImovelDataOcupacao }),
	textField("imovel_forma_ocupacao", func(r *Registration) **string { return &r.ImovelFormaOcupacao }),
	textField("imovel_docs_posse", func(r *Registration) **string { return &r.ImovelDocsPosse }),
	textField("imovel_fotos", func(r *Registration) **string { return &r.ImovelFotos }),
	textField("imovel_croqui", func(r *Registration) **string { return &r.ImovelCroqui }),
	textField("confrontante_ld", func(r *Registration) **string { return &r.ConfrontanteLd }),
	textField("confrontante_le", func(r *Registration) **string { return &r.ConfrontanteLe }),
	textField("confrontante_fundo", func(r *Registration) **string { return &r.ConfrontanteFundo }),
	textField("confrontante_frente", func(r *Registration) **string { return &r.ConfrontanteFrente }),
	textField("reurb_finalidade_moradia", func(r *Registration) **string { return &r.ReurbFinalidadeMoradia }),
	numberField("reurb_renda_familiar", func(r *Registration) **float64 { return &r.ReurbRendaFamiliar }),
	textField("reurb_propriedade", func(r *Registration) **string { return &r.ReurbPropriedade }),
	textField("reurb_infra_necessaria", func(r *Registration) **string { return &r.ReurbInfraNecessaria }),
	textField("reurb_riscos", func(r *Registration) **string { return &r.ReurbRiscos }),
	textField("reurb_riscos_descricao", func(r *Registration) **string { return &r.ReurbRiscosDescricao }),
	textField("reurb_outro_imovel", func(r *Registration) **string { return &r.ReurbOutroImovel }),
	textField("reurb_cadunico", func(r *Registration) **string { return &r.ReurbCadunico }),
	textField("tipo_reurb", func(r *Registration) **string { return &r.TipoReurb }),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(registrationFields))
	for _, f := range registrationFields {
		m[f.Name] = f
	}
	return m
}()

// RegistrationFields возвращает разрешённые поля в порядке колонок таблицы.
func RegistrationFields() []Field {
	out := make([]Field, len(registrationFields))
	copy(out, registrationFields)
	return out
}

// LookupField возвращает описание поля по имени.
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// IsImmutableField сообщает, что поле управляется сервером.
func IsImmutableField(name string) bool {
	return name == FieldID || name == FieldCreatedAt || name == FieldUpdatedAt
}

// FieldError — ошибка приведения значения поля к его типу.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("поле %s: %s", e.Field, e.Reason)
}

// Set присваивает полю значение из JSON или ячейки таблицы с приведением типа.
// nil и пустая строка очищают поле.
func (f Field) Set(r *Registration, raw any) error {
	switch f.Kind {
	case FieldText:
		v, err := coerceText(raw)
		if err != nil {
			return &FieldError{Field: f.Name, Reason: err.Error()}
		}
		*f.text(r) = v
	case FieldNumber:
		v, err := coerceNumber(raw)
		if err != nil {
			return &FieldError{Field: f.Name, Reason: err.Error()}
		}
		*f.num(r) = v
	}
	return nil
}

// Value возвращает значение поля (*string или *float64) для SQL-аргументов.
func (f Field) Value(r *Registration) any {
	if f.Kind == FieldNumber {
		return *f.num(r)
	}
	return *f.text(r)
}

// ScanTarget возвращает указатель для rows.Scan.
func (f Field) ScanTarget(r *Registration) any {
	if f.Kind == FieldNumber {
		return f.num(r)
	}
	return f.text(r)
}

// JSONValue возвращает значение поля для JSON-ответа (nil, string или float64).
func (f Field) JSONValue(r *Registration) any {
	if f.Kind == FieldNumber {
		if v := *f.num(r); v != nil {
			return *v
		}
		return nil
	}
	if v := *f.text(r); v != nil {
		return *v
	}
	return nil
}

// Apply применяет к записи поля из payload. Применяются только поля
// из списка разрешённых. Неизвестные и серверные ключи не меняют запись
// и возвращаются отсортированным списком ignored.
func (r *Registration) Apply(payload map[string]any) (ignored []string, err error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Приведение в копию: запись меняется только если все поля валидны
	next := *r
	for _, k := range keys {
		f, ok := fieldsByName[k]
		if !ok {
			ignored = append(ignored, k)
			continue
		}
		if err := f.Set(&next, payload[k]); err != nil {
			return nil, err
		}
	}
	*r = next
	return ignored, nil
}

// ToMap возвращает полное JSON-представление записи.
func (r *Registration) ToMap() map[string]any {
	m := make(map[string]any, len(registrationFields)+3)
	m[FieldID] = r.ID
	for _, f := range registrationFields {
		m[f.Name] = f.JSONValue(r)
	}
	m[FieldCreatedAt] = formatTime(r.CreatedAt)
	m[FieldUpdatedAt] = formatTime(r.UpdatedAt)
	return m
}

// --- Значения, используемые расчётом IPTU ---

// Street возвращает улицу объекта, если она задана.
func (r *Registration) Street() (string, bool) { return nonEmpty(r.ImovelLogradouro) }

// ConstructionType возвращает тип постройки, если он задан.
func (r *Registration) ConstructionType() (string, bool) { return nonEmpty(r.ImovelTipoConstrucao) }

// Usage возвращает категорию использования, если она задана.
func (r *Registration) Usage() (string, bool) { return nonEmpty(r.ImovelUso) }

// TotalArea возвращает общую площадь участка, если она положительна.
func (r *Registration) TotalArea() (float64, bool) { return positive(r.ImovelAreaTotal) }

// BuiltArea возвращает площадь застройки, если она положительна.
func (r *Registration) BuiltArea() (float64, bool) { return positive(r.ImovelAreaConstruida) }

// --- Вспомогательные функции ---

func coerceText(raw any) (*string, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil, fmt.Errorf("ожидается строка, получено %T", raw)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return &s, nil
}

func coerceNumber(raw any) (*float64, error) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("некорректное число %q", v.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		// Десятичная запятая (100,5) допускается, если нет точки
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректное число %q", v)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("ожидается число, получено %T", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("некорректное число %v", f)
	}
	// Площади и доход не бывают отрицательными
	if f < 0 {
		return nil, fmt.Errorf("отрицательное значение %v недопустимо", f)
	}
	return &f, nil
}

func nonEmpty(p *string) (string, bool) {
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

func positive(p *float64) (float64, bool) {
	if p == nil || *p <= 0 {
		return 0, false
	}
	return *p, true
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
