package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errOverlap = errors.New("lines overlap")

type lineConfig struct {
	sda, scl int
	calls    []string
}

func (c *lineConfig) Validate() error {
	if c.sda == c.scl {
		return errOverlap
	}

	return nil
}

func withSDA(line int) Option[*lineConfig] {
	return New(func(c *lineConfig) error {
		if line < 0 {
			return errors.New("negative line")
		}
		c.sda = line
		c.calls = append(c.calls, "sda")

		return nil
	})
}

func withSCL(line int) Option[*lineConfig] {
	return NoError(func(c *lineConfig) {
		c.scl = line
		c.calls = append(c.calls, "scl")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &lineConfig{}
		err := Apply(cfg, withSDA(1), withSCL(0), withSDA(3))
		require.NoError(t, err)
		require.Equal(t, 3, cfg.sda)
		require.Equal(t, 0, cfg.scl)
		require.Equal(t, []string{"sda", "scl", "sda"}, cfg.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &lineConfig{}
		err := Apply(cfg, withSCL(2), withSDA(-1), withSCL(5))
		require.Error(t, err)
		require.Equal(t, 2, cfg.scl)
		require.Equal(t, []string{"scl"}, cfg.calls)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &lineConfig{}
		require.NoError(t, Apply(cfg, nil, withSCL(4), nil))
		require.Equal(t, 4, cfg.scl)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &lineConfig{sda: 7}
		require.NoError(t, Apply[*lineConfig](cfg))
		require.Equal(t, 7, cfg.sda)
	})
}

func TestApplyAndValidate(t *testing.T) {
	cfg := &lineConfig{}
	require.NoError(t, ApplyAndValidate(cfg, withSDA(1), withSCL(0)))

	cfg = &lineConfig{}
	err := ApplyAndValidate(cfg, withSDA(2), withSCL(2))
	require.ErrorIs(t, err, errOverlap)

	// option errors win over validation
	cfg = &lineConfig{}
	err = ApplyAndValidate(cfg, withSDA(-1))
	require.Error(t, err)
	require.NotErrorIs(t, err, errOverlap)
}
