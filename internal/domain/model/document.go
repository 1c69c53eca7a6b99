package model

import "time"

// DefaultDocumentType — тип документа, если клиент его не указал.
const DefaultDocumentType = "Não especificado"

// Document — файл, прикреплённый к регистрационной записи.
// Хранится в таблице documents, удаляется каскадно вместе с записью.
type Document struct {
	// ID — первичный ключ
	ID int64
	// RegistrationID — владелец документа
	RegistrationID int64
	// FileName — очищенное исходное имя файла
	FileName string
	// StoragePath — имя файла в директории загрузок
	StoragePath string
	// DocumentType — метка типа документа
	DocumentType string
	// Size — размер в байтах
	Size int64
	// Checksum — SHA-256 содержимого (hex)
	Checksum string
	// UploadedAt — время загрузки
	UploadedAt time.Time
}

// ToMap возвращает JSON-представление документа.
func (d *Document) ToMap() map[string]any {
	return map[string]any{
		"id":            d.ID,
		"file_name":     d.FileName,
		"storage_name":  d.StoragePath,
		"document_type": d.DocumentType,
		"size":          d.Size,
		"checksum":      d.Checksum,
		"uploaded_at":   d.UploadedAt.UTC().Format(time.RFC3339),
	}
}
