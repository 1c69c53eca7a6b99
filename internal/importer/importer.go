// Пакет importer — разбор табличных выгрузок (CSV, XLSX) в регистрационные
// записи. Заголовки колонок приводятся к именам полей через таблицу
// псевдонимов, неизвестные колонки отбрасываются.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

var (
	// ErrUnsupportedFormat — расширение файла не .csv и не .xlsx.
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат файла")
	// ErrNoData — в файле нет заголовка или строк данных.
	ErrNoData = errors.New("файл не содержит данных")
)

// Format — формат входного файла.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat определяет формат по расширению имени файла.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// RowError — ошибка разбора строки данных. Row — номер строки данных,
// начиная с 1 (строка заголовка не считается).
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("строка %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Result — результат разбора файла.
type Result struct {
	// Registrations — записи в порядке строк файла
	Registrations []*model.Registration
	// Columns — распознанные поля в порядке колонок
	Columns []string
	// Dropped — заголовки, не соответствующие ни одному полю
	Dropped []string
}

// Parse читает файл целиком и строит записи. Любая ошибка строки
// прерывает разбор: частичный результат не возвращается.
func Parse(r io.Reader, format Format, aliases Aliases) (*Result, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = readCSV(r)
	case FormatXLSX:
		table, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, ErrNoData
	}

	if aliases == nil {
		aliases = DefaultAliases()
	}

	res := &Result{}
	// fieldAt[i] — поле колонки i или пустая строка для отброшенной
	header := table[0]
	fieldAt := make([]string, len(header))
	seen := make(map[string]string, len(header))
	for i, h := range header {
		field, ok := aliases.Resolve(h)
		if !ok {
			if strings.TrimSpace(h) != "" {
				res.Dropped = append(res.Dropped, h)
			}
			continue
		}
		if prev, dup := seen[field]; dup {
			return nil, fmt.Errorf("колонки %q и %q соответствуют одному полю %s", prev, h, field)
		}
		seen[field] = h
		fieldAt[i] = field
		res.Columns = append(res.Columns, field)
	}

	for n, row := range table[1:] {
		if isBlankRow(row) {
			continue
		}
		reg := &model.Registration{}
		for i, cell := range row {
			if i >= len(fieldAt) || fieldAt[i] == "" {
				continue
			}
			f, _ := model.LookupField(fieldAt[i])
			if err := f.Set(reg, cell); err != nil {
				return nil, &RowError{Row: n + 1, Err: err}
			}
		}
		res.Registrations = append(res.Registrations, reg)
	}

	if len(res.Registrations) == 0 {
		return nil, ErrNoData
	}
	return res, nil
}

// readCSV читает CSV (разделитель запятая, UTF-8, BOM допускается).
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	// Строки короче заголовка встречаются в ручных выгрузках
	cr.FieldsPerRecord = -1

	table, err := cr.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Строка файла 1 — заголовок, строка данных = строка файла - 1
			return nil, &RowError{Row: parseErr.StartLine - 1, Err: parseErr.Err}
		}
		return nil, fmt.Errorf("ошибка разбора CSV: %w", err)
	}
	return table, nil
}

// readXLSX читает первый лист книги. Значения берутся без форматирования
// ячеек, чтобы числа не искажались разделителями разрядов.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoData
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheets[0], err)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
