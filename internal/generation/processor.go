package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"promptcraft/internal/domain"
)

const (
	processorBatchSize = 10
	processorInterval  = 5 * time.Second
)

// ProcessorOptions configures the background job processor.
type ProcessorOptions struct {
	Jobs    domain.JobRepository
	Scenes  domain.SceneRepository
	Service *Service
	Logger  zerolog.Logger
}

// Processor drains the persisted job queue in the background. It assumes a
// single running instance; jobs are not claimed with locks, so two processors
// against one database would double-process.
type Processor struct {
	jobs    domain.JobRepository
	scenes  domain.SceneRepository
	service *Service
	logger  zerolog.Logger

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewProcessor(opts ProcessorOptions) *Processor {
	return &Processor{
		jobs:    opts.Jobs,
		scenes:  opts.Scenes,
		service: opts.Service,
		logger:  opts.Logger,
	}
}

// jobPayload is the parsed shape of a queued job's data document.
type jobPayload struct {
	Provider   string         `json:"provider"`
	Prompt     string         `json:"prompt"`
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
}

// Start launches the processing loop. Calling Start on an already running
// processor is a no-op.
func (p *Processor) Start(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug().Msg("processor: already running, start ignored")
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.logger.Info().Msg("processor: started")

	go func() {
		defer close(p.done)
		for {
			p.runCycle(ctx)
			select {
			case <-ctx.Done():
				return
			case <-time.After(processorInterval):
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (p *Processor) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	<-p.done
	p.logger.Info().Msg("processor: stopped")
}

// runCycle fetches one batch of pending jobs and processes them in order. A
// fetch failure skips the cycle; the next tick retries.
func (p *Processor) runCycle(ctx context.Context) {
	jobs, err := p.jobs.FetchPending(ctx, processorBatchSize)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Error().Err(err).Msg("processor: fetch pending jobs failed")
		}
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		p.processJob(ctx, job)
	}
}

func (p *Processor) processJob(ctx context.Context, job domain.Job) {
	log := p.logger.With().Str("job_id", job.ID).Str("type", job.Type).Logger()

	running := domain.JobStatusRunning
	if _, err := p.jobs.Update(ctx, job.ID, domain.UpdateJobInput{Status: &running}); err != nil {
		log.Error().Err(err).Msg("processor: mark job running failed")
		return
	}

	result, err := p.executeJob(ctx, job)
	if err != nil {
		log.Warn().Err(err).Msg("processor: job failed")
		p.finishJob(ctx, job.ID, domain.JobStatusFailed, nil, err)
		return
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("processor: serialize result failed")
		p.finishJob(ctx, job.ID, domain.JobStatusFailed, nil, err)
		return
	}

	p.finishJob(ctx, job.ID, domain.JobStatusCompleted, serialized, nil)
	p.updateSceneThumbnail(ctx, job, result)
	log.Info().Msg("processor: job completed")
}

func (p *Processor) executeJob(ctx context.Context, job domain.Job) (*Result, error) {
	var payload jobPayload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		return nil, errors.New("invalid job data: " + err.Error())
	}
	if payload.Provider == "" {
		return nil, errors.New("job data missing provider")
	}
	if payload.Prompt == "" {
		return nil, errors.New("job data missing prompt")
	}
	if payload.Model == "" {
		payload.Model = "default"
	}
	if payload.Parameters == nil {
		payload.Parameters = map[string]any{}
	}

	return p.service.Generate(ctx, payload.Provider, Request{
		Prompt:     payload.Prompt,
		Model:      payload.Model,
		Parameters: payload.Parameters,
	})
}

func (p *Processor) finishJob(ctx context.Context, jobID string, status domain.JobStatus, result json.RawMessage, jobErr error) {
	update := domain.UpdateJobInput{Status: &status, Result: result}
	if jobErr != nil {
		msg := jobErr.Error()
		update.Error = &msg
	}
	if _, err := p.jobs.Update(ctx, jobID, update); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Str("status", string(status)).Msg("processor: finalize job failed")
	}
}

// updateSceneThumbnail records the generated media on the job's scene. Purely
// best-effort: failures are logged and never affect the job outcome.
func (p *Processor) updateSceneThumbnail(ctx context.Context, job domain.Job, result *Result) {
	if job.SceneID == nil || result == nil {
		return
	}
	thumbnail := result.OutputURL
	if thumbnail == "" {
		thumbnail = result.OutputData
	}
	if thumbnail == "" {
		return
	}
	if _, err := p.scenes.Update(ctx, *job.SceneID, domain.UpdateSceneInput{Thumbnail: &thumbnail}); err != nil {
		p.logger.Warn().Err(err).Str("scene_id", *job.SceneID).Msg("processor: scene thumbnail update failed")
	}
}
