package vault

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
)

// Simulator runs a read-only execution of an envelope against the node.
type Simulator interface {
	SimulateTransaction(ctx context.Context, envelope string) (*sorobanrpc.SimulationResult, error)
}

// SimulationError reports a contract revert discovered during simulation.
// Diagnostic is the node's message, untouched; downstream layers must not
// paraphrase it away.
type SimulationError struct {
	Diagnostic string
}

func (e *SimulationError) Error() string { return e.Diagnostic }

// Assembler folds simulation results into an unsigned envelope, producing the
// assembled stage ready for signing.
type Assembler struct {
	sim    Simulator
	logger *zap.Logger
}

func NewAssembler(sim Simulator, logger *zap.Logger) *Assembler {
	return &Assembler{sim: sim, logger: logger}
}

// AssembleResult carries the assembled envelope and the total fee the user
// will pay if it is submitted: base fee plus the simulated resource fee.
type AssembleResult struct {
	Envelope     string
	EstimatedFee int64
}

// Assemble simulates the unsigned envelope and attaches resource fees and
// footprint data. A revert aborts assembly with a SimulationError; the
// envelope never advances past a failed simulation.
func (a *Assembler) Assemble(ctx context.Context, unsigned string) (*AssembleResult, error) {
	env, err := DecodeEnvelope(unsigned)
	if err != nil {
		return nil, err
	}
	if err := env.requireStage(StageUnsigned); err != nil {
		return nil, err
	}

	result, err := a.sim.SimulateTransaction(ctx, unsigned)
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	if result.Error != "" {
		metrics.SimulationFailures.Inc()
		a.logger.Warn("simulation reverted", zap.String("diagnostic", result.Error))
		return nil, &SimulationError{Diagnostic: result.Error}
	}

	env.Stage = StageAssembled
	env.ResourceFee = result.MinResourceFee
	env.TransactionData = result.TransactionData

	blob, err := env.Encode()
	if err != nil {
		return nil, err
	}
	return &AssembleResult{
		Envelope:     blob,
		EstimatedFee: env.BaseFee + env.ResourceFee,
	}, nil
}
