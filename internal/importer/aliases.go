package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// Aliases — соответствие заголовков колонок полям регистрационной записи.
// Ключи хранятся нормализованными (см. normalizeHeader).
type Aliases map[string]string

// defaultAliases — встроенные варианты заголовков из выгрузок муниципалитета.
var defaultAliases = map[string]string{
	"Nome do Requerente":         "req_nome",
	"CPF do Requerente":          "req_cpf",
	"RG do Requerente":           "req_rg",
	"Data de Nascimento":         "req_data_nasc",
	"Nacionalidade":              "req_nacionalidade",
	"Estado Civil":               "req_estado_civil",
	"Nome do Cônjuge":            "conj_nome",
	"CPF do Cônjuge":             "conj_cpf",
	"Profissão":                  "req_profissao",
	"Telefone":                   "req_telefone",
	"E-mail":                     "req_email",
	"Email":                      "req_email",
	"CEP do Imóvel":              "imovel_cep",
	"Logradouro do Imóvel":       "imovel_logradouro",
	"Número do Imóvel":           "imovel_numero",
	"Bairro do Imóvel":           "imovel_bairro",
	"Cidade do Imóvel":           "imovel_cidade",
	"UF do Imóvel":               "imovel_uf",
	"Inscrição Imobiliária":      "inscricao_imobiliaria",
	"Área Total":                 "imovel_area_total",
	"Área Construída":            "imovel_area_construida",
	"Uso do Imóvel":              "imovel_uso",
	"Tipo de Construção":         "imovel_tipo_construcao",
	"Renda Familiar":             "reurb_renda_familiar",
	"Tipo de REURB":              "tipo_reurb",
	"Inscrição no CadÚnico":      "reurb_cadunico",
	"Data de Ocupação":           "imovel_data_ocupacao",
	"Forma de Ocupação":          "imovel_forma_ocupacao",
	"Confrontante Frente":        "confrontante_frente",
	"Confrontante Fundo":         "confrontante_fundo",
	"Confrontante Lado Direito":  "confrontante_ld",
	"Confrontante Lado Esquerdo": "confrontante_le",
}

// DefaultAliases возвращает встроенную таблицу вариантов заголовков.
// Канонические имена полей распознаются всегда и в таблице не нужны.
func DefaultAliases() Aliases {
	a := make(Aliases, len(defaultAliases))
	for header, field := range defaultAliases {
		a[normalizeHeader(header)] = field
	}
	return a
}

// aliasFile — формат YAML-файла дополнительных вариантов заголовков:
//
//	aliases:
//	  "Nome completo": req_nome
//	  "Metragem": imovel_area_total
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases читает YAML-файл и добавляет его варианты к встроенным.
// Пустой path возвращает только встроенную таблицу. Целевое поле
// должно быть известным полем записи.
func LoadAliases(path string) (Aliases, error) {
	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла псевдонимов %s: %w", path, err)
	}

	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла псевдонимов %s: %w", path, err)
	}

	for header, field := range file.Aliases {
		if _, ok := model.LookupField(field); !ok {
			return nil, fmt.Errorf("файл псевдонимов %s: заголовок %q ссылается на неизвестное поле %q",
				path, header, field)
		}
		aliases[normalizeHeader(header)] = field
	}
	return aliases, nil
}

// Resolve возвращает каноническое имя поля для заголовка колонки.
func (a Aliases) Resolve(header string) (string, bool) {
	key := normalizeHeader(header)
	if field, ok := a[key]; ok {
		return field, true
	}
	if _, ok := model.LookupField(key); ok {
		return key, true
	}
	return "", false
}

// normalizeHeader приводит заголовок к виду для сравнения:
// без BOM, лишних пробелов и регистра.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
