package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

var (
	ErrTokenRequired = errors.New("scraper token is required")
	ErrRunFailed     = errors.New("scrape run failed")
	ErrRunTimeout    = errors.New("run timed out waiting for completion")
	ErrCancelled     = errors.New("scrape run cancelled")
	ErrUnknownRun    = errors.New("unknown scrape run")
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxAttempts  = 30
	DefaultKeepFinished = 50
)

// RunAPI is the subset of the run-management API the poller needs.
type RunAPI interface {
	StartRun(ctx context.Context, token, actorID string, input interface{}) (*types.ActorRun, error)
	RunStatus(ctx context.Context, token, runID string) (*types.ActorRun, error)
	DatasetItems(ctx context.Context, token, runID string) ([]types.ScrapedPlace, error)
}

// LocationWriter stores one imported listing, keyed by its place id.
type LocationWriter interface {
	UpsertByPlaceID(ctx context.Context, loc *models.Location) (*models.Location, error)
}

// RunRecorder persists the progress of each run.
type RunRecorder interface {
	Create(ctx context.Context, run *models.ScrapeRun) error
	Update(ctx context.Context, run *models.ScrapeRun) error
}

type Observer interface {
	RunStarted()
	RunFinished(status string, processed int)
}

type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
	// KeepFinished is how many finished outcomes stay available to Wait.
	// Older runs are only in the run records.
	KeepFinished   int
	DefaultActorID string
	DefaultInput   types.ScrapeSearchParams

	Runs     RunRecorder
	Observer Observer
	// OnImported is called after each listing is stored.
	OnImported func(ctx context.Context, loc *models.Location)
}

type SubmitRequest struct {
	Token     string
	ActorID   string
	Input     map[string]interface{}
	StartedBy uint
}

// Outcome is the final state of a run as seen by the poller.
type Outcome struct {
	RunID     string `json:"runId"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	Processed int    `json:"processed"`
	Err       error  `json:"-"`
}

type job struct {
	t       tomb.Tomb
	record  models.ScrapeRun
	outcome Outcome
}

// Poller follows submitted runs in the background, one goroutine per run.
// Status checks for a run are strictly sequential.
type Poller struct {
	api       RunAPI
	locations LocationWriter
	opts      Options

	// Sleep waits between status checks. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	logger zerolog.Logger

	mu       sync.Mutex
	jobs     map[string]*job
	finished map[string]Outcome
	// finishedOrder lists finished run ids, oldest first.
	finishedOrder []string
}

func NewPoller(api RunAPI, locations LocationWriter, opts Options) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.KeepFinished <= 0 {
		opts.KeepFinished = DefaultKeepFinished
	}
	return &Poller{
		api:       api,
		locations: locations,
		opts:      opts,
		Sleep:     sleep,
		logger:    logging.NewPackageLogger("scraper"),
		jobs:      make(map[string]*job),
		finished:  make(map[string]Outcome),
	}
}

// Submit starts a run and returns as soon as the API has accepted it.
// Polling and import continue in the background.
func (p *Poller) Submit(ctx context.Context, req SubmitRequest) (*types.ActorRun, error) {
	if req.Token == "" {
		return nil, ErrTokenRequired
	}
	actorID := req.ActorID
	if actorID == "" {
		actorID = p.opts.DefaultActorID
	}
	var input interface{} = req.Input
	if len(req.Input) == 0 {
		input = p.opts.DefaultInput
	}

	params, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode scrape input: %w", err)
	}

	run, err := p.api.StartRun(ctx, req.Token, actorID, input)
	if err != nil {
		return nil, err
	}

	j := &job{
		record: models.ScrapeRun{
			RunID:        run.ID,
			ActorID:      actorID,
			Status:       models.RunStatusPending,
			SearchParams: params,
			StartedBy:    req.StartedBy,
			StartedAt:    time.Now(),
		},
		outcome: Outcome{RunID: run.ID, Status: models.RunStatusPending},
	}
	if p.opts.Runs != nil {
		if err := p.opts.Runs.Create(ctx, &j.record); err != nil {
			p.logger.Error().Err(err).Str(logging.RUN, run.ID).Msg("failed to record scrape run")
		}
	}

	p.mu.Lock()
	p.jobs[run.ID] = j
	p.mu.Unlock()

	if p.opts.Observer != nil {
		p.opts.Observer.RunStarted()
	}
	p.logger.Info().Str(logging.RUN, run.ID).Str(logging.ACTOR, actorID).RawJSON("input", params).Msg("scrape run started")

	j.t.Go(func() error {
		return p.follow(j, req.Token)
	})
	return run, nil
}

// Wait blocks until the run has finished and returns its outcome. Only the
// most recent KeepFinished outcomes are remembered once a run is done.
func (p *Poller) Wait(ctx context.Context, runID string) (Outcome, error) {
	p.mu.Lock()
	j, ok := p.jobs[runID]
	out, done := p.finished[runID]
	p.mu.Unlock()
	switch {
	case done:
		return out, nil
	case !ok:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	select {
	case <-j.t.Dead():
		return j.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Cancel stops following a run. The actor itself is left running.
func (p *Poller) Cancel(runID string) error {
	j, err := p.job(runID)
	if err != nil {
		return err
	}
	j.t.Kill(ErrCancelled)
	return nil
}

// Running reports whether the poller is still following runID.
func (p *Poller) Running(runID string) bool {
	j, err := p.job(runID)
	return err == nil && j.t.Alive()
}

// Stop cancels every run and waits for the goroutines to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	jobs := make([]*job, 0, len(p.jobs))
	for _, j := range p.jobs {
		jobs = append(jobs, j)
	}
	p.mu.Unlock()

	for _, j := range jobs {
		j.t.Kill(ErrCancelled)
	}
	for _, j := range jobs {
		j.t.Wait()
	}
}

func (p *Poller) job(runID string) (*job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return j, nil
}

func (p *Poller) follow(j *job, token string) error {
	ctx := j.t.Context(nil)
	logger := p.logger.With().Str(logging.RUN, j.record.RunID).Logger()

	outcome := p.poll(ctx, logger, j, token)
	j.outcome = outcome

	now := time.Now()
	j.record.Status = outcome.Status
	j.record.Attempts = outcome.Attempts
	j.record.Processed = outcome.Processed
	j.record.FinishedAt = &now
	if outcome.Err != nil {
		j.record.Error = outcome.Err.Error()
	}
	p.saveRecord(logger, &j.record)

	if p.opts.Observer != nil {
		p.opts.Observer.RunFinished(outcome.Status, outcome.Processed)
	}

	event := logger.Info()
	if outcome.Err != nil {
		event = logger.Error().Err(outcome.Err)
	}
	event.Str(logging.STATUS, outcome.Status).
		Int(logging.ATTEMPT, outcome.Attempts).
		Int("processed", outcome.Processed).
		Msg("scrape run finished")

	p.retire(j)
	return outcome.Err
}

// retire moves a finished job out of the live set, keeping its outcome.
func (p *Poller) retire(j *job) {
	runID := j.record.RunID
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.jobs, runID)
	p.finished[runID] = j.outcome
	p.finishedOrder = append(p.finishedOrder, runID)
	for len(p.finishedOrder) > p.opts.KeepFinished {
		delete(p.finished, p.finishedOrder[0])
		p.finishedOrder = p.finishedOrder[1:]
	}
}

func (p *Poller) poll(ctx context.Context, logger zerolog.Logger, j *job, token string) Outcome {
	out := Outcome{RunID: j.record.RunID}

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		out.Attempts = attempt

		run, err := p.api.RunStatus(ctx, token, out.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(out)
			}
			out.Status = models.RunStatusError
			out.Err = err
			return out
		}
		logger.Debug().Str(logging.STATUS, run.Status).Int(logging.ATTEMPT, attempt).Msg("run status")

		if run.Status != j.record.Status {
			j.record.Status = run.Status
			j.record.Attempts = attempt
			p.saveRecord(logger, &j.record)
		}

		switch run.Status {
		case models.RunStatusSucceeded:
			items, err := p.api.DatasetItems(ctx, token, out.RunID)
			if err != nil {
				if ctx.Err() != nil {
					return cancelled(out)
				}
				out.Status = models.RunStatusError
				out.Err = err
				return out
			}
			logger.Info().Int("items", len(items)).Msg("retrieved dataset")
			out.Processed = p.importItems(ctx, logger, items)
			if ctx.Err() != nil {
				return cancelled(out)
			}
			out.Status = models.RunStatusSucceeded
			return out

		case models.RunStatusFailed, models.RunStatusAborted, models.RunStatusTimedOut:
			out.Status = run.Status
			out.Err = fmt.Errorf("%w: run %s ended with status: %s", ErrRunFailed, out.RunID, run.Status)
			return out
		}

		if attempt < p.opts.MaxAttempts {
			if err := p.Sleep(ctx, p.opts.PollInterval); err != nil {
				return cancelled(out)
			}
		}
	}

	out.Status = models.RunStatusTimedOut
	out.Err = ErrRunTimeout
	return out
}

// importItems stores every item as soon as it is mapped. Items that fail are
// logged and skipped.
func (p *Poller) importItems(ctx context.Context, logger zerolog.Logger, items []types.ScrapedPlace) int {
	processed := 0
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		loc, err := ToLocation(item)
		if err != nil {
			logger.Warn().Err(err).Str("title", item.Title).Msg("skipping scraped place")
			continue
		}
		if _, err := p.locations.UpsertByPlaceID(ctx, loc); err != nil {
			logger.Error().Err(err).Str("title", item.Title).Msg("error inserting location")
			continue
		}
		processed++
		if p.opts.OnImported != nil {
			p.opts.OnImported(ctx, loc)
		}
		logger.Debug().Str(logging.LOCATION, loc.Slug).Msg("added location")
	}
	return processed
}

func (p *Poller) saveRecord(logger zerolog.Logger, run *models.ScrapeRun) {
	if p.opts.Runs == nil {
		return
	}
	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.opts.Runs.Update(ctx, run); err != nil {
		logger.Error().Err(err).Msg("failed to update scrape run")
	}
}

func cancelled(out Outcome) Outcome {
	out.Status = models.RunStatusCancelled
	out.Err = ErrCancelled
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
