package health

import (
	"time"

	"excelkeeper/internal/infrastructure/storage/postgres"
)

// Input represents the input for health check endpoint
type Input struct{}

// Output represents the output for health check endpoint
type Output struct {
	Body Response
}

// Response represents the health check response
type Response struct {
	Success   bool               `json:"success"`
	Status    string             `json:"status" enum:"healthy,unhealthy" doc:"Состояние пула соединений с БД"`
	Timestamp time.Time          `json:"timestamp"`
	Pool      postgres.PoolStats `json:"pool"`
}
