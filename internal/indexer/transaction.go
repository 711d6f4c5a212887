package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// TxState describes where a transaction is in its lifecycle
type TxState string

const (
	TxPending    TxState = "pending"
	TxInProgress TxState = "in_progress"
	TxCommitted  TxState = "committed"
	TxRolledBack TxState = "rolled_back"
	TxFailed     TxState = "failed"
)

// Step is one unit of an indexing transaction. Execute performs the step's
// write; Compensate undoes it during rollback and may be nil for steps with
// nothing to undo.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// TxResult reports the terminal outcome of a transaction run
type TxResult struct {
	ID             string
	State          TxState
	CompletedSteps []string
	FailedStep     string
	Err            error

	// CompensationErrors collects rollback failures. They are logged and
	// recorded but never abort the rollback.
	CompensationErrors []error
}

// Transaction runs an ordered list of steps as a saga: on the first execute
// failure every step from the failing one back to the first has its
// compensate invoked, best effort. A transaction executes exactly once.
type Transaction struct {
	id       string
	steps    []Step
	executed bool
}

// NewTransaction creates an empty transaction with a fresh correlation id
func NewTransaction() *Transaction {
	return &Transaction{id: uuid.NewString()}
}

// ID returns the transaction's correlation id, used in rollback log lines
func (t *Transaction) ID() string {
	return t.id
}

// AddStep appends a step and returns the transaction for chaining
func (t *Transaction) AddStep(name string, execute func(ctx context.Context) error, compensate func(ctx context.Context) error) *Transaction {
	t.steps = append(t.steps, Step{Name: name, Execute: execute, Compensate: compensate})
	return t
}

// Execute runs the steps in order. The second and later calls return a
// Failed result without touching any step.
func (t *Transaction) Execute(ctx context.Context) *TxResult {
	if t.executed {
		return &TxResult{
			ID:    t.id,
			State: TxFailed,
			Err:   errors.New("transaction already executed"),
		}
	}
	t.executed = true

	result := &TxResult{
		ID:             t.id,
		State:          TxInProgress,
		CompletedSteps: make([]string, 0, len(t.steps)),
	}

	for i, step := range t.steps {
		if err := step.Execute(ctx); err != nil {
			result.FailedStep = step.Name
			result.Err = fmt.Errorf("step %q failed: %w", step.Name, err)
			t.rollback(ctx, i, result)
			result.State = TxRolledBack
			return result
		}
		result.CompletedSteps = append(result.CompletedSteps, step.Name)
	}

	result.State = TxCommitted
	return result
}

// rollback compensates steps from index from down to 0. The failing step's
// own compensate runs too, since its execute may have partially applied.
// Compensation errors are collected and logged, never re-raised, so a broken
// compensate cannot strand the steps before it.
func (t *Transaction) rollback(ctx context.Context, from int, result *TxResult) {
	for i := from; i >= 0; i-- {
		step := t.steps[i]
		if step.Compensate == nil {
			log.Printf("transaction %s: step %q has no compensation, skipping", t.id, step.Name)
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			log.Printf("transaction %s: compensation for step %q failed: %v", t.id, step.Name, err)
			result.CompensationErrors = append(result.CompensationErrors,
				fmt.Errorf("compensate %q: %w", step.Name, err))
		}
	}
}
