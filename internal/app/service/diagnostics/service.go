package diagnostics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coursemint/settlement/pkg/logctx"
)

// Result is the outcome of one repair run. Success is true only when the
// verify step confirmed the target state, not merely when no call errored.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Repair is one idempotent corrective routine. Every step is best-effort: a
// failed diagnose or repair never prevents the later steps from running, and
// only Verify decides the outcome.
type Repair interface {
	Name() string
	// Diagnose reports the current state in human-readable form.
	Diagnose(ctx context.Context) (string, error)
	// PrimaryRepair applies the main corrective change.
	PrimaryRepair(ctx context.Context) error
	// SecondaryChange applies the follow-up change the primary repair depends
	// on or unblocks, with the same transport fallback.
	SecondaryChange(ctx context.Context) error
	// Verify checks whether the target state was actually reached.
	Verify(ctx context.Context) (bool, string, error)
}

type Service struct {
	log     *zap.SugaredLogger
	markers Markers
	repairs map[string]Repair
}

func NewService(log *zap.SugaredLogger, markers Markers, repairs ...Repair) *Service {
	m := make(map[string]Repair, len(repairs))
	for _, r := range repairs {
		m[r.Name()] = r
	}
	return &Service{log: log, markers: markers, repairs: m}
}

// Names lists the registered repairs for the admin surface.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.repairs))
	for name := range s.repairs {
		names = append(names, name)
	}
	return names
}

func markerKey(name string) string { return "repair:" + name }

// Run executes the named repair's state machine: diagnose, primary repair,
// secondary change, verify, record. A marker from a previous successful run
// short-circuits the corrective steps, but the state is still diagnosed so
// the caller sees it really is correct.
func (s *Service) Run(ctx context.Context, name string) (*Result, error) {
	repair, ok := s.repairs[name]
	if !ok {
		return nil, fmt.Errorf("unknown repair: %s", name)
	}
	log := logctx.FromCtx(ctx, s.log).With("repair", name)

	if val, found, err := s.markers.Get(ctx, markerKey(name)); err != nil {
		log.Warnw("marker lookup failed, proceeding with full run", "err", err)
	} else if found {
		report, derr := repair.Diagnose(ctx)
		if derr != nil {
			log.Warnw("diagnose failed on short-circuit path", "err", derr)
			report = "state unknown"
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("already completed at %s; %s", val, report),
		}, nil
	}

	report, err := repair.Diagnose(ctx)
	if err != nil {
		log.Warnw("diagnose failed", "err", err)
		report = "state unknown"
	} else {
		log.Infow("diagnosed", "report", report)
	}

	if err := repair.PrimaryRepair(ctx); err != nil {
		log.Warnw("primary repair failed", "err", err)
	}
	if err := repair.SecondaryChange(ctx); err != nil {
		log.Warnw("secondary change failed", "err", err)
	}

	ok, verifyMsg, err := repair.Verify(ctx)
	if err != nil {
		log.Errorw("verify failed", "err", err)
		return &Result{Success: false, Message: fmt.Sprintf("verification error: %v", err)}, nil
	}
	if !ok {
		return &Result{Success: false, Message: verifyMsg}, nil
	}

	if err := s.markers.Set(ctx, markerKey(name), time.Now().Format(time.RFC3339)); err != nil {
		log.Warnw("failed to record completion marker", "err", err)
	}
	return &Result{Success: true, Message: verifyMsg}, nil
}

// ClearMarker forces the next Run to execute the corrective steps again.
func (s *Service) ClearMarker(ctx context.Context, name string) error {
	if _, ok := s.repairs[name]; !ok {
		return fmt.Errorf("unknown repair: %s", name)
	}
	return s.markers.Clear(ctx, markerKey(name))
}
