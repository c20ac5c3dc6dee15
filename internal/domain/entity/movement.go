package entity

import (
	"fmt"
	"time"
)

// MovementKind tipo de movimiento del kardex.
type MovementKind string

// Tipos de movimiento. Los valores coinciden con la columna kardex.tipo.
const (
	MovementKindIn  MovementKind = "entrada" // ingreso de unidades
	MovementKindOut MovementKind = "salida"  // egreso de unidades
)

// Valid indica si el tipo es uno de los soportados.
func (k MovementKind) Valid() bool {
	return k == MovementKindIn || k == MovementKindOut
}

// Sign devuelve +1 para entradas y -1 para salidas.
func (k MovementKind) Sign() int64 {
	if k == MovementKindOut {
		return -1
	}
	return 1
}

// Estados de un movimiento (columna kardex.estado).
const (
	MovementStatusVoided = 0
	MovementStatusActive = 1
)

// Movement es una entrada inmutable del kardex. Las correcciones se registran como
// movimientos compensatorios, nunca como ediciones.
type Movement struct {
	ID        int64
	Date      time.Time
	Kind      MovementKind
	Quantity  int64 // siempre positivo; el signo lo da Kind
	ProductID int64
	CompanyID int64
	UserID    int64 // id interno del usuario, nunca el id externo de auth
	Detail    string
	Status    int
}

// Voided indica si el movimiento fue anulado.
func (m Movement) Voided() bool {
	return m.Status == MovementStatusVoided
}

// Delta devuelve la variación de stock que aporta el movimiento.
func (m Movement) Delta() int64 {
	if m.Voided() {
		return 0
	}
	return m.Kind.Sign() * m.Quantity
}

// DefaultDetail detalle por defecto para un movimiento sin descripción.
func DefaultDetail(kind MovementKind) string {
	return fmt.Sprintf("Movimiento de %s", kind)
}

// KardexEntry es una fila del kardex tal como se muestra: el movimiento más los datos
// descriptivos y el saldo acumulado del producto después de aplicarlo.
type KardexEntry struct {
	Movement
	ProductDescription string
	UserName           string
	Balance            int64
}

// RecordID y OccurredAt permiten ordenar y reemplazar entradas por identificador.
func (e KardexEntry) RecordID() int64       { return e.ID }
func (e KardexEntry) OccurredAt() time.Time { return e.Date }
