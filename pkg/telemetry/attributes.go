package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Задание оптимизации
	AttrJobID         = "job.id"
	AttrVehicleCount  = "job.vehicle_count"
	AttrShipmentCount = "job.shipment_count"
	AttrTimeLimit     = "job.time_limit_seconds"

	// Решение
	AttrSolveStatus = "solve.status"
	AttrObjective   = "solve.objective_value"
	AttrRoutesCount = "solve.routes_count"
	AttrUnassigned  = "solve.unassigned_count"

	// Валидация
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// JobAttributes возвращает атрибуты задания оптимизации.
func JobAttributes(jobID string, vehicleCount, shipmentCount, timeLimit int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrJobID, jobID),
		attribute.Int(AttrVehicleCount, vehicleCount),
		attribute.Int(AttrShipmentCount, shipmentCount),
		attribute.Int(AttrTimeLimit, timeLimit),
	}
}

// SolveAttributes возвращает атрибуты завершённого решения.
func SolveAttributes(status string, objective float64, routesCount, unassignedCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolveStatus, status),
		attribute.Float64(AttrObjective, objective),
		attribute.Int(AttrRoutesCount, routesCount),
		attribute.Int(AttrUnassigned, unassignedCount),
	}
}

// ValidationAttributes возвращает атрибуты валидации заявки.
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
