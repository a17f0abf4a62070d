package cmd

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/WaveringAna/wisp/pkg/engine"
	"github.com/WaveringAna/wisp/pkg/logging"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/split"
	"github.com/WaveringAna/wisp/pkg/storage/localfs"
)

// pullCmd reconstructs a published site on disk
var pullCmd = &cobra.Command{
	Use:   "pull <site> <directory>",
	Short: "Pull a site to a local directory",
	Long: `Pull a site back out of the store: resolve its manifest record,
fetch every file's blob, decode it and write the original content into
the target directory.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if wispFlags.upload.did == "" {
			wrapFatalln("a DID is required: set --did or the config file", nil)
			return
		}
		logger, err := logging.New(wispFlags.root.logLevel)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		records := localfs.NewRecordStore(storeFs("records"))
		blobs := localfs.New(storeFs("blobs"))

		uri := model.ATURI{
			DID:        wispFlags.upload.did,
			Collection: model.FsCollection,
			RKey:       args[0],
		}.String()
		var manifest model.Manifest
		if err := records.GetRecord(ctx, uri, &manifest); err != nil {
			wrapFatalln("load manifest "+uri, err)
			return
		}
		if manifest.Root == nil {
			wrapFatalln("manifest has no root directory", nil)
			return
		}

		resolver := split.NewResolver(records, split.ResolverLogger(logger))
		merged, err := resolver.Resolve(ctx, manifest.Root)
		if err != nil {
			wrapFatalln("resolve manifest", err)
			return
		}

		if err := os.MkdirAll(args[1], 0755); err != nil {
			wrapFatalln("create target directory", err)
			return
		}
		written, err := engine.Restore(ctx, blobs, merged,
			afero.NewBasePathFs(afero.NewOsFs(), args[1]), logger)
		if err != nil {
			wrapFatalln("restore site", err)
			return
		}
		infoLogger.Printf("%s %d files to %s", color.GreenString("restored"), written, args[1])
	},
}

func init() {
	addDIDFlag(pullCmd)

	rootCmd.AddCommand(pullCmd)
}
