// Package jobs contiene las tareas en segundo plano (asynq) del servicio.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto de las tareas.
	QueueDefault = "default"
	// TaskReconcileStock recalcula productos.stock a partir del kardex.
	TaskReconcileStock = "kardex:reconcile_stock"
)

// ReconcileStockPayload CompanyID 0 reconcilia todas las empresas.
type ReconcileStockPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewReconcileStockTask construye la tarea de reconciliación.
func NewReconcileStockTask(companyID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcileStockPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileStock, body, asynq.Queue(QueueDefault)), nil
}
