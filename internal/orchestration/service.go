//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

package orchestration

import (
	"context"

	"github.com/agbru/pdcbench/internal/experiment"
)

// Service is the remote processing service. remote.Client implements it over
// HTTP; tests use mocks.MockService.
type Service interface {
	// UploadBatch creates a batch from the given files.
	UploadBatch(ctx context.Context, files []experiment.UploadFile) (experiment.Batch, error)
	// StartExperiment launches an experiment for a batch and returns its id.
	StartExperiment(ctx context.Context, batchID experiment.ID, mode experiment.Mode) (experiment.ID, error)
	// GetExperimentStatus performs one status query.
	GetExperimentStatus(ctx context.Context, id experiment.ID) (experiment.StatusReport, error)
}
