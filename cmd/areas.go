package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/recordstore/pkg/area"
	"github.com/foomo/recordstore/pkg/collection"
	"github.com/foomo/recordstore/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	// blob drivers of the sync area
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// supportedBlobSchemes lists the URL schemes supported by the sync area
var supportedBlobSchemes = []string{"gs://", "s3://", "azblob://", "file://", "mem://"}

func addAreaFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addDefaultAreaFlag(flags, v)
	addLocalPathFlag(flags, v)
	addSyncBucketFlag(flags, v)
	addSyncPrefixFlag(flags, v)
}

// newPool opens every area and returns the collection pool serving them. The
// pool is flushed and the areas are closed when svr shuts down.
func newPool(cmd *cobra.Command, svr *keel.Server, v *viper.Viper, l *zap.Logger) (*collection.Pool, error) {
	cfg, err := newConfig(cmd, v)
	if err != nil {
		return nil, err
	}

	areas, closers, err := createAreas(cmd.Context(), v, l)
	if err != nil {
		return nil, err
	}

	pool := collection.NewPool(l.Named("inst.pool"), areas, cfg)

	isLoadedHealtherFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
		if !pool.Loaded() {
			return errors.New("collections not loaded yet")
		}
		return nil
	})
	svr.AddReadinessHealthzers(isLoadedHealtherFn)

	svr.AddClosers(func(ctx context.Context) error {
		err := pool.Close(ctx)
		return multierr.Append(err, closeAll(closers))
	})

	return pool, nil
}

// newConfig reads the process wide config from env, the flag wins if given
func newConfig(cmd *cobra.Command, v *viper.Viper) (config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("default-area") {
		kind, err := area.ParseKind(defaultAreaFlag(v))
		if err != nil {
			return cfg, err
		}
		cfg.DefaultArea = kind
	}
	return cfg, nil
}

// createAreas opens the local, sync and session areas, each enforcing its
// default quota
func createAreas(ctx context.Context, v *viper.Viper, l *zap.Logger) (area.Areas, []io.Closer, error) {
	localPath := localPathFlag(v)
	syncBucket := syncBucketFlag(v)
	syncPrefix := syncPrefixFlag(v)

	if !isValidBlobScheme(syncBucket) {
		return nil, nil, errors.Errorf("unsupported sync bucket URL scheme in %q; supported schemes: %s", syncBucket, strings.Join(supportedBlobSchemes, ", "))
	}

	local, err := area.OpenSQLite(localPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open local area")
	}
	l.Info("using sqlite local area", zap.String("path", localPath))

	syncArea, err := area.NewBlob(ctx, syncBucket, syncPrefix)
	if err != nil {
		return nil, nil, multierr.Append(errors.Wrap(err, "failed to open sync area"), local.Close())
	}
	l.Info("using blob sync area",
		zap.String("bucket", syncBucket),
		zap.String("prefix", syncPrefix),
	)

	session := area.NewMemory()

	areas := area.Areas{
		area.KindLocal:   area.WithQuota(local, area.DefaultQuota(area.KindLocal)),
		area.KindSync:    area.WithQuota(syncArea, area.DefaultQuota(area.KindSync)),
		area.KindSession: area.WithQuota(session, area.DefaultQuota(area.KindSession)),
	}
	return areas, []io.Closer{local, syncArea, session}, nil
}

func closeAll(closers []io.Closer) error {
	errs := make([]error, len(closers))
	var g errgroup.Group
	for i, c := range closers {
		g.Go(func() error {
			errs[i] = c.Close()
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

// isValidBlobScheme checks if the bucket URL has a supported scheme
func isValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}
