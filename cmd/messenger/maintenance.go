package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"messenger/internal/app"
	"messenger/internal/domain"
	"messenger/internal/platform/factory"

	"github.com/spf13/cobra"
)

var (
	errInconsistent = errors.New("stored state is inconsistent")
	errSeeded       = errors.New("stored state already exists, use --force to replace it")
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the stored contact graph and histories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			repo, err := factory.NewRepository(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()
			return runCheck(cmd.Context(), repo, os.Stdout)
		},
	}
}

func newSeedCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the initial users and histories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			repo, err := factory.NewRepository(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()
			seeder, err := newSeeder(cfg)
			if err != nil {
				return err
			}
			if err := runSeed(cmd.Context(), repo, seeder, force); err != nil {
				return err
			}
			log.Info().Str("store_driver", cfg.StoreDriver).Msg("seed state written")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace existing state")
	return cmd
}

// runCheck loads the snapshot and reports every broken link to w.
func runCheck(ctx context.Context, repo domain.StateRepository, w io.Writer) error {
	st, err := repo.Load(contextOrBackground(ctx))
	if err != nil {
		return err
	}
	problems := st.CheckLinks()
	for _, p := range problems {
		fmt.Fprintln(w, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %d problems", errInconsistent, len(problems))
	}
	fmt.Fprintf(w, "ok: %d users, %d histories, %d sessions\n", len(st.Users), len(st.Histories), len(st.Sessions))
	return nil
}

// runSeed persists a fresh seed state. Without force an existing usable
// snapshot is left alone.
func runSeed(ctx context.Context, repo domain.StateRepository, init app.Initializer, force bool) error {
	ctx = contextOrBackground(ctx)
	if !force {
		_, err := repo.Load(ctx)
		if err == nil {
			return errSeeded
		}
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
	}
	st, err := init.Initialize()
	if err != nil {
		return err
	}
	return repo.Save(ctx, st)
}
