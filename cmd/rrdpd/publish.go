package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rpki/rrdppub/cmd"
	"github.com/go-rpki/rrdppub/pkg/config"
	"github.com/go-rpki/rrdppub/pkg/crawl"
	"github.com/go-rpki/rrdppub/pkg/logging"
	"github.com/go-rpki/rrdppub/pkg/rrdp"
	"github.com/go-rpki/rrdppub/pkg/state"
	"github.com/go-rpki/rrdppub/pkg/uri"
)

var logger = logging.RootLogger.Sublogger("publish")

func publishMain(command *cobra.Command, arguments []string) error {
	cfg, err := config.Load(publishConfiguration.configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	if !rootConfiguration.debug {
		logging.CurrentLevel = cfg.Level()
	}

	rsyncBase, err := uri.NewRsyncBase(cfg.RsyncBase)
	if err != nil {
		return fmt.Errorf("invalid rsync base: %w", err)
	}
	httpsBase, err := uri.NewHTTPSBase(cfg.HTTPSBase)
	if err != nil {
		return fmt.Errorf("invalid https base: %w", err)
	}

	repo, err := state.Reconstitute(httpsBase, cfg.BaseDirectory)
	if err != nil {
		logger.Printf("unable to reconstitute existing state, starting a fresh session: %v", err)
	}

	files, err := crawl.Crawl(context.Background(), cfg.SourceDirectory, rsyncBase)
	if err != nil {
		return fmt.Errorf("unable to crawl source directory: %w", err)
	}
	logger.Printf("crawled %d objects from %s", len(files), cfg.SourceDirectory)

	if repo == nil {
		snapshot, err := rrdp.NewSnapshot(files)
		if err != nil {
			return fmt.Errorf("unable to start new session: %w", err)
		}
		repo, err = state.New(snapshot, httpsBase, cfg.BaseDirectory)
		if err != nil {
			return fmt.Errorf("unable to start new session: %w", err)
		}
	} else {
		next := repo.Snapshot
		next.Serial = repo.Serial + 1
		next.CurrentObjects = files
		if err := repo.Apply(next); err != nil {
			return fmt.Errorf("unable to apply new snapshot: %w", err)
		}
	}

	if err := repo.Save(cfg.MaxDeltas, cfg.Clean); err != nil {
		return fmt.Errorf("unable to save repository state: %w", err)
	}

	logger.Printf("published session %s at serial %d", repo.Session, repo.Serial)
	return nil
}

var publishCommand = &cobra.Command{
	Use:           "publish",
	Short:         "Crawl the configured source directory and publish an updated RRDP repository",
	Args:          cmd.DisallowArguments,
	Run:           cmd.Mainify(publishMain),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var publishConfiguration struct {
	configPath string
}

func init() {
	flags := publishCommand.Flags()
	flags.StringVarP(&publishConfiguration.configPath, "config", "c", "rrdp-publish.yaml", "Path to the publish configuration file")
}
