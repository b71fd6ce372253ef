package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// FineTuner uploads a training file and creates an OpenAI fine-tuning job.
type FineTuner struct {
	client    *openai.Client
	baseModel string
}

func NewFineTuner(apiKey, baseModel string) *FineTuner {
	return &FineTuner{
		client:    openai.NewClient(apiKey),
		baseModel: baseModel,
	}
}

func (f *FineTuner) StartFineTune(ctx context.Context, datasetPath string) (string, error) {
	file, err := f.client.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(datasetPath),
		FilePath: datasetPath,
		Purpose:  "fine-tune",
	})
	if err != nil {
		return "", fmt.Errorf("uploading training file: %w", err)
	}

	job, err := f.client.CreateFineTuningJob(ctx, openai.FineTuningJobRequest{
		TrainingFile: file.ID,
		Model:        f.baseModel,
	})
	if err != nil {
		return "", fmt.Errorf("creating fine-tuning job: %w", err)
	}

	logger.Info("fine-tuning job %s created from %s", job.ID, datasetPath)
	return job.ID, nil
}

// SimulatedFineTuner stands in when no training backend is configured. It
// logs the cycle and sleeps briefly so the coalescing behavior of the
// ingestor is still observable in development.
type SimulatedFineTuner struct {
	Delay time.Duration
}

func (f *SimulatedFineTuner) StartFineTune(ctx context.Context, datasetPath string) (string, error) {
	jobID := "sim-" + uuid.New().String()
	logger.Info("simulated fine-tuning cycle %s over %s", jobID, datasetPath)

	delay := f.Delay
	if delay == 0 {
		delay = time.Second
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return jobID, nil
}
