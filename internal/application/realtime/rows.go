package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Decoder convierte una fila cruda del feed en un registro estricto.
type Decoder[T Record] func(raw json.RawMessage) (T, error)

// movementRow es la forma de una fila de la tabla kardex en el feed.
type movementRow struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"fecha"`
	Kind      string    `json:"tipo"`
	Quantity  int64     `json:"cantidad"`
	ProductID int64     `json:"id_producto"`
	CompanyID int64     `json:"id_empresa"`
	UserID    int64     `json:"id_usuario"`
	Detail    string    `json:"detalle"`
	Status    *int      `json:"estado"`
}

// DecodeMovement valida una fila del kardex y la convierte en KardexEntry.
// Los campos descriptivos (producto, usuario, saldo) los completa quien la consume.
func DecodeMovement(raw json.RawMessage) (entity.KardexEntry, error) {
	var row movementRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return entity.KardexEntry{}, fmt.Errorf("decode kardex row: %w", err)
	}
	kind := entity.MovementKind(row.Kind)
	switch {
	case row.ID == 0:
		return entity.KardexEntry{}, fmt.Errorf("decode kardex row: id vacío")
	case !kind.Valid():
		return entity.KardexEntry{}, fmt.Errorf("decode kardex row %d: tipo %q inválido", row.ID, row.Kind)
	case row.Quantity <= 0:
		return entity.KardexEntry{}, fmt.Errorf("decode kardex row %d: cantidad %d inválida", row.ID, row.Quantity)
	case row.ProductID == 0 || row.CompanyID == 0:
		return entity.KardexEntry{}, fmt.Errorf("decode kardex row %d: referencias incompletas", row.ID)
	}
	status := entity.MovementStatusActive
	if row.Status != nil {
		status = *row.Status
	}
	return entity.KardexEntry{Movement: entity.Movement{
		ID:        row.ID,
		Date:      row.Date,
		Kind:      kind,
		Quantity:  row.Quantity,
		ProductID: row.ProductID,
		CompanyID: row.CompanyID,
		UserID:    row.UserID,
		Detail:    row.Detail,
		Status:    status,
	}}, nil
}

type messageRow struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"id_empresa"`
	Author    string    `json:"autor"`
	Content   string    `json:"contenido"`
	CreatedAt time.Time `json:"created_at"`
}

// DecodeMessage valida una fila de la tabla messages.
func DecodeMessage(raw json.RawMessage) (entity.Message, error) {
	var row messageRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return entity.Message{}, fmt.Errorf("decode message row: %w", err)
	}
	if row.ID == 0 {
		return entity.Message{}, fmt.Errorf("decode message row: id vacío")
	}
	return entity.Message{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		Author:    row.Author,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}, nil
}

// rowID extrae solo el identificador de una fila (Old puede traer únicamente la PK).
func rowID(raw json.RawMessage) (int64, error) {
	var row struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return 0, fmt.Errorf("decode row id: %w", err)
	}
	if row.ID == 0 {
		return 0, fmt.Errorf("decode row id: id vacío")
	}
	return row.ID, nil
}
