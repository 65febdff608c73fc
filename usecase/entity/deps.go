package entity

import (
	"go.uber.org/zap"

	"github.com/dealease/backend/usecase"
)

// Deps carries the ambient collaborators every concrete store takes.
type Deps struct {
	Buffer  usecase.OperationBuffer
	Metrics usecase.StoreMetrics
	Logger  *zap.Logger
}
