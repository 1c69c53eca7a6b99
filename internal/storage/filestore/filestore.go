// Пакет filestore — хранение вложенных документов на диске.
// Запись потоковая, с подсчётом SHA-256 на лету и ограничением размера.
package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge — содержимое превышает допустимый размер.
	ErrTooLarge = errors.New("файл превышает допустимый размер")
	// ErrInvalidName — имя файла пустое, скрытое (начинается с точки), содержит
	// разделители пути, ".." или управляющие символы.
	ErrInvalidName = errors.New("недопустимое имя файла")
	// ErrNotFound — файл отсутствует в директории загрузок.
	ErrNotFound = errors.New("файл не найден")
)

// tempPattern — шаблон временных файлов Save. Ведущая точка делает их скрытыми.
const tempPattern = ".upload-*.part"

// FileStore — управление файлами в директории загрузок.
type FileStore struct {
	// dir — директория загрузок (REURB_UPLOAD_DIR)
	dir string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageName — уникальное имя файла в директории загрузок
	StorageName string
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 содержимого в hex
	Checksum string
}

// New создаёт FileStore, при необходимости создавая директорию.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir возвращает директорию загрузок.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Save записывает содержимое reader под уникальным именем.
// maxSize <= 0 отключает ограничение. При превышении возвращает ErrTooLarge,
// временный файл удаляется.
//
// Паттерн: скрытый temp файл → запись + SHA-256 → fsync → atomic rename.
// Скрытые имена не проходят ValidateName, поэтому недописанный файл
// нельзя открыть через Open.
func (fs *FileStore) Save(reader io.Reader, originalName string, maxSize int64) (*SaveResult, error) {
	storageName := generateStorageName(originalName)
	fullPath := filepath.Join(fs.dir, storageName)

	f, err := os.CreateTemp(fs.dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpPath := f.Name()

	fail := func(err error) (*SaveResult, error) {
		f.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	src := reader
	if maxSize > 0 {
		// Читаем на байт больше лимита, чтобы отличить превышение от точного совпадения
		src = io.LimitReader(reader, maxSize+1)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(src, hasher))
	if err != nil {
		return fail(fmt.Errorf("ошибка записи данных: %w", err))
	}
	if maxSize > 0 && size > maxSize {
		return fail(ErrTooLarge)
	}

	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("ошибка fsync: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageName: storageName,
		Size:        size,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open открывает сохранённый файл по имени. Вызывающий код закрывает файл.
func (fs *FileStore) Open(name string) (*os.File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(fs.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка получения информации о файле %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой.
func (fs *FileStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(fs.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла %s: %w", name, err)
	}
	return nil
}

// Exists проверяет наличие файла.
func (fs *FileStore) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(fs.dir, name))
	return err == nil
}

// ValidateName проверяет, что имя ссылается на файл непосредственно
// в директории загрузок.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// SanitizeFileName приводит имя, присланное клиентом, к безопасному виду:
// отбрасывает путь, управляющие символы и всё, кроме букв, цифр, '-', '_' и '.'.
func SanitizeFileName(name string) string {
	// Клиенты Windows присылают полный путь с обратными слэшами
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	ext := sanitize(strings.TrimPrefix(filepath.Ext(name), "."))
	base := sanitize(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "file"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// generateStorageName генерирует уникальное имя для хранения.
// Формат: {name}_{timestamp}_{uuid}.{ext}, uuid полный (36 символов).
// Пример: escritura_20260221150405_1b4e28ba-2fa1-11d2-883f-0016d3cca427.pdf
func generateStorageName(originalName string) string {
	clean := SanitizeFileName(originalName)
	ext := filepath.Ext(clean)
	name := strings.TrimSuffix(clean, ext)

	// Длина имени ограничена в рунах, чтобы не резать многобайтовые символы
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.NewString()

	return fmt.Sprintf("%s_%s_%s%s", name, ts, uid, ext)
}

// sanitize оставляет только буквы (включая акцентированные), цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
