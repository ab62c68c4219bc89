package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/config"
)

func TestDefaultConfigurationIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestValidateRejectsNonPositiveFactor(t *testing.T) {
	c := config.Default()
	c.MaxEvaluationFactor = 0
	require.Error(t, c.Validate())
}

func TestBudgetScalesWithInstructionCount(t *testing.T) {
	c := config.Default()
	c.MaxEvaluationFactor = 10
	require.Equal(t, 50, c.Budget(5))
}

func TestDeadlineAbsentWhenUnconfigured(t *testing.T) {
	c := config.Default()
	c.MaxEvaluationTimeMs = 0
	_, ok := c.Deadline(time.Now())
	require.False(t, ok)
}
