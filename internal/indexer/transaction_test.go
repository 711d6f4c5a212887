package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_CommitsInOrder(t *testing.T) {
	var order []string
	step := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	tx := NewTransaction().
		AddStep("first", step("first"), nil).
		AddStep("second", step("second"), nil).
		AddStep("third", step("third"), nil)

	result := tx.Execute(context.Background())

	assert.Equal(t, TxCommitted, result.State)
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, []string{"first", "second", "third"}, result.CompletedSteps)
	assert.Empty(t, result.CompensationErrors)
}

func TestTransaction_RollsBackInReverse(t *testing.T) {
	var compensated []string
	comp := func(name string) func(context.Context) error {
		return func(context.Context) error {
			compensated = append(compensated, name)
			return nil
		}
	}
	ok := func(context.Context) error { return nil }
	boom := errors.New("disk full")

	tx := NewTransaction().
		AddStep("vectors", ok, comp("vectors")).
		AddStep("keywords", ok, comp("keywords")).
		AddStep("chunks", func(context.Context) error { return boom }, comp("chunks"))

	result := tx.Execute(context.Background())

	assert.Equal(t, TxRolledBack, result.State)
	assert.Equal(t, "chunks", result.FailedStep)
	require.ErrorIs(t, result.Err, boom)
	// The failing step's own compensation runs first
	assert.Equal(t, []string{"chunks", "keywords", "vectors"}, compensated)
	assert.Equal(t, []string{"vectors", "keywords"}, result.CompletedSteps)
	assert.Empty(t, result.CompensationErrors)
}

func TestTransaction_ExecutesExactlyOnce(t *testing.T) {
	calls := 0
	tx := NewTransaction().AddStep("only", func(context.Context) error {
		calls++
		return nil
	}, nil)

	first := tx.Execute(context.Background())
	second := tx.Execute(context.Background())

	assert.Equal(t, TxCommitted, first.State)
	assert.Equal(t, TxFailed, second.State)
	assert.ErrorContains(t, second.Err, "already executed")
	assert.Equal(t, 1, calls)
}

func TestTransaction_SkipsMissingCompensation(t *testing.T) {
	var compensated []string

	tx := NewTransaction().
		AddStep("no-undo", func(context.Context) error { return nil }, nil).
		AddStep("undoable", func(context.Context) error { return nil },
			func(context.Context) error {
				compensated = append(compensated, "undoable")
				return nil
			}).
		AddStep("failing", func(context.Context) error { return errors.New("nope") }, nil)

	result := tx.Execute(context.Background())

	assert.Equal(t, TxRolledBack, result.State)
	assert.Equal(t, []string{"undoable"}, compensated)
	assert.Empty(t, result.CompensationErrors)
}

func TestTransaction_CollectsCompensationErrors(t *testing.T) {
	undoErr := errors.New("undo failed")
	var reached []string

	tx := NewTransaction().
		AddStep("first", func(context.Context) error { return nil },
			func(context.Context) error {
				reached = append(reached, "first")
				return nil
			}).
		AddStep("second", func(context.Context) error { return nil },
			func(context.Context) error { return undoErr }).
		AddStep("third", func(context.Context) error { return errors.New("exec failed") },
			func(context.Context) error {
				reached = append(reached, "third")
				return nil
			})

	result := tx.Execute(context.Background())

	assert.Equal(t, TxRolledBack, result.State)
	require.Len(t, result.CompensationErrors, 1)
	assert.ErrorIs(t, result.CompensationErrors[0], undoErr)
	// A failing compensation never strands the steps before it
	assert.Equal(t, []string{"third", "first"}, reached)
}

func TestTransaction_EmptyCommits(t *testing.T) {
	result := NewTransaction().Execute(context.Background())

	assert.Equal(t, TxCommitted, result.State)
	assert.Empty(t, result.CompletedSteps)
	assert.NoError(t, result.Err)
}

func TestTransaction_FreshCorrelationIDs(t *testing.T) {
	a := NewTransaction()
	b := NewTransaction()

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())

	result := a.Execute(context.Background())
	assert.Equal(t, a.ID(), result.ID)
}
