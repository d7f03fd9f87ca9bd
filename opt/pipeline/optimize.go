package pipeline

import (
	"github.com/jlm-go/rvsdgc/config"
	"github.com/jlm-go/rvsdgc/ir/cfg"
	"github.com/jlm-go/rvsdgc/rvsdg"
)

// Optimize applies a full optimiser configuration to m: the load
// normal-form toggles are installed on the module, then the configured
// passes run in order.
func Optimize(m *rvsdg.Module, c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}

	nf := m.NormalForm(cfg.OpLoad)
	nf.EnableLoadMux = c.EnableLoadMux
	nf.EnableLoadAlloca = c.EnableLoadAlloca
	nf.EnableMultipleOrigin = c.EnableMultipleOrigin
	nf.EnableLoadStoreState = c.EnableLoadStoreState
	nf.EnableLoadStoreAlloca = c.EnableLoadStoreAlloca

	passes := make([]Pass, len(c.Passes))
	for i, p := range c.Passes {
		passes[i] = Pass(p)
	}
	return Run(m, passes, Options{UnrollFactor: c.UnrollFactor})
}
