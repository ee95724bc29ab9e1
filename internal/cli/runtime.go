package cmd

import (
	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/config"
	"github.com/rohmanhakim/cfcli/internal/judge"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/spf13/cobra"
)

// runtime is what a command needs to talk to the judge.
type runtime struct {
	cfg   config.Config
	creds auth.Credentials
	judge *judge.Judge
	sink  metadata.MetadataSink
	close judge.Closer
}

func newRuntime(cmd *cobra.Command, override auth.Credentials) (*runtime, error) {
	cfg, err := InitConfigWithError()
	if err != nil {
		return nil, err
	}
	creds, err := loadCredentials(override)
	if err != nil {
		return nil, err
	}

	sink := metadata.NewRecorder(newLogger(cmd.ErrOrStderr(), verbose))
	j, closer, err := judge.NewFromConfig(cfg, creds, sink)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:   cfg,
		creds: creds,
		judge: j,
		sink:  sink,
		close: closer,
	}, nil
}
