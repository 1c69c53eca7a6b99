package importer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"cadastros.csv", FormatCSV, false},
		{"CADASTROS.CSV", FormatCSV, false},
		{"planilha.xlsx", FormatXLSX, false},
		{"planilha.xls", "", true},
		{"dados.txt", "", true},
		{"semextensao", "", true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("DetectFormat(%q) ошибка = %v, ожидалась ErrUnsupportedFormat", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, %v", tt.name, got, err)
		}
	}
}

func TestParseCSV_AliasesAndDroppedColumns(t *testing.T) {
	input := "\xef\xbb\xbfNome do Requerente,CPF do Requerente,inscricao_imobiliaria,Observação,imovel_area_total\n" +
		"Maria da Silva,123.456.789-00,01.02.003,qualquer,\"120,5\"\n" +
		"João Souza,,01.02.004,,\n"

	res, err := Parse(strings.NewReader(input), FormatCSV, nil)
	if err != nil {
		t.Fatalf("Parse() ошибка: %v", err)
	}

	if len(res.Registrations) != 2 {
		t.Fatalf("получено %d записей, ожидалось 2", len(res.Registrations))
	}
	wantCols := []string{"req_nome", "req_cpf", "inscricao_imobiliaria", "imovel_area_total"}
	if strings.Join(res.Columns, ",") != strings.Join(wantCols, ",") {
		t.Errorf("Columns = %v, хотели %v", res.Columns, wantCols)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "Observação" {
		t.Errorf("Dropped = %v", res.Dropped)
	}

	first := res.Registrations[0]
	if first.ReqNome == nil || *first.ReqNome != "Maria da Silva" {
		t.Errorf("ReqNome = %v", first.ReqNome)
	}
	if first.ImovelAreaTotal == nil || *first.ImovelAreaTotal != 120.5 {
		t.Errorf("ImovelAreaTotal = %v", first.ImovelAreaTotal)
	}

	second := res.Registrations[1]
	if second.ReqCPF != nil {
		t.Errorf("пустая ячейка должна давать NULL, получено %q", *second.ReqCPF)
	}
	if second.ImovelAreaTotal != nil {
		t.Errorf("пустая числовая ячейка должна давать NULL, получено %v", *second.ImovelAreaTotal)
	}
}

func TestParseCSV_TypeErrorReportsRow(t *testing.T) {
	input := "req_nome,imovel_area_total\n" +
		"r1,10\n" +
		"r2,20\n" +
		"r3,abc\n" +
		"r4,40\n" +
		"r5,50\n"

	res, err := Parse(strings.NewReader(input), FormatCSV, nil)
	if err == nil {
		t.Fatalf("Parse() должен вернуть ошибку, получено %d записей", len(res.Registrations))
	}

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("ожидалась RowError, получено %T: %v", err, err)
	}
	if rowErr.Row != 3 {
		t.Errorf("Row = %d, ожидалось 3", rowErr.Row)
	}
	if !strings.Contains(err.Error(), "imovel_area_total") {
		t.Errorf("сообщение должно называть поле: %v", err)
	}
}

func TestParseCSV_BlankRowsAndShortRows(t *testing.T) {
	input := "req_nome,req_cpf,imovel_uso\n" +
		"r1\n" +
		",,\n" +
		"r2,111,Residencial\n"

	res, err := Parse(strings.NewReader(input), FormatCSV, nil)
	if err != nil {
		t.Fatalf("Parse() ошибка: %v", err)
	}
	if len(res.Registrations) != 2 {
		t.Fatalf("получено %d записей, ожидалось 2", len(res.Registrations))
	}
	if res.Registrations[0].ImovelUso != nil {
		t.Error("отсутствующая ячейка короткой строки должна давать NULL")
	}
	if u := res.Registrations[1].ImovelUso; u == nil || *u != "Residencial" {
		t.Errorf("ImovelUso = %v", u)
	}
}

func TestParse_NoData(t *testing.T) {
	for _, input := range []string{"", "req_nome,req_cpf\n", "req_nome\n,\n"} {
		if _, err := Parse(strings.NewReader(input), FormatCSV, nil); !errors.Is(err, ErrNoData) {
			t.Errorf("Parse(%q) = %v, ожидалась ErrNoData", input, err)
		}
	}
}

func TestParse_DuplicateColumn(t *testing.T) {
	input := "req_nome,Nome do Requerente\nA,B\n"
	if _, err := Parse(strings.NewReader(input), FormatCSV, nil); err == nil {
		t.Error("две колонки одного поля должны давать ошибку")
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Nome do Requerente", "Inscrição Imobiliária", "Área Total", "Área Construída"},
		{"Ana", "09.99.001", 100, 80.5},
		{"Bruno", "09.99.002", nil, nil},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow() ошибка: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() ошибка: %v", err)
	}

	res, err := Parse(bytes.NewReader(buf.Bytes()), FormatXLSX, nil)
	if err != nil {
		t.Fatalf("Parse() ошибка: %v", err)
	}
	if len(res.Registrations) != 2 {
		t.Fatalf("получено %d записей, ожидалось 2", len(res.Registrations))
	}

	ana := res.Registrations[0]
	if ana.InscricaoImobiliaria == nil || *ana.InscricaoImobiliaria != "09.99.001" {
		t.Errorf("InscricaoImobiliaria = %v", ana.InscricaoImobiliaria)
	}
	if ana.ImovelAreaTotal == nil || *ana.ImovelAreaTotal != 100 {
		t.Errorf("ImovelAreaTotal = %v", ana.ImovelAreaTotal)
	}
	if ana.ImovelAreaConstruida == nil || *ana.ImovelAreaConstruida != 80.5 {
		t.Errorf("ImovelAreaConstruida = %v", ana.ImovelAreaConstruida)
	}
	if res.Registrations[1].ImovelAreaTotal != nil {
		t.Error("пустая ячейка XLSX должна давать NULL")
	}
}

func TestParseXLSX_Invalid(t *testing.T) {
	if _, err := Parse(strings.NewReader("not a zip"), FormatXLSX, nil); err == nil {
		t.Error("повреждённый XLSX должен давать ошибку")
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	content := "aliases:\n  \"Nome completo\": req_nome\n  \"Metragem\": imovel_area_total\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases() ошибка: %v", err)
	}

	tests := map[string]string{
		"Nome completo":          "req_nome",
		"  METRAGEM ":            "imovel_area_total",
		"Nome do Requerente":     "req_nome",
		"inscrição  imobiliária": "inscricao_imobiliaria",
		"req_cpf":                "req_cpf",
	}
	for header, want := range tests {
		got, ok := aliases.Resolve(header)
		if !ok || got != want {
			t.Errorf("Resolve(%q) = %q, %v; хотели %q", header, got, ok, want)
		}
	}
	if _, ok := aliases.Resolve("id"); ok {
		t.Error("id не должен распознаваться как поле")
	}
}

func TestLoadAliases_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("aliases:\n  X: nao_existe\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAliases(unknown); err == nil {
		t.Error("ссылка на неизвестное поле должна давать ошибку")
	}

	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("aliases: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAliases(broken); err == nil {
		t.Error("некорректный YAML должен давать ошибку")
	}

	if _, err := LoadAliases(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("отсутствующий файл должен давать ошибку")
	}

	if a, err := LoadAliases(""); err != nil || len(a) == 0 {
		t.Errorf("LoadAliases(\"\") = %d, %v", len(a), err)
	}
}
