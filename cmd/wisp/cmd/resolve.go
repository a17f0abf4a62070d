package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/WaveringAna/wisp/pkg/logging"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/split"
	"github.com/WaveringAna/wisp/pkg/storage/localfs"
)

// resolveCmd loads a manifest, merges its subfs records back in and
// prints the full tree
var resolveCmd = &cobra.Command{
	Use:   "resolve {<at-uri> | <manifest.json>}",
	Short: "Resolve a manifest to its full tree",
	Long: `Resolve a manifest record to the full directory tree it describes,
fetching and splicing every subfs record it was split into.

The manifest is addressed either by its at:// URI in the local record
store or by a path to a serialized manifest record.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger, err := logging.New(wispFlags.root.logLevel)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		records := localfs.NewRecordStore(storeFs("records"))

		var manifest model.Manifest
		if strings.HasPrefix(args[0], "at://") {
			err = records.GetRecord(ctx, args[0], &manifest)
		} else {
			var data []byte
			data, err = os.ReadFile(args[0])
			if err == nil {
				err = model.UnmarshalRecord(data, &manifest)
			}
		}
		if err != nil {
			wrapFatalln("load manifest", err)
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

		infoLogger.Printf("%s (%d files)", color.New(color.Bold).Sprint(manifest.Site), manifest.FileCount)
		printTree(merged, "")
	},
}

func printTree(dir *model.Directory, indent string) {
	for _, e := range dir.Entries {
		switch n := e.Node.(type) {
		case *model.Directory:
			infoLogger.Printf("%s%s/", indent, color.BlueString(e.Name))
			printTree(n, indent+"  ")
		case *model.File:
			size := ""
			if n.Blob != nil && n.Blob.Size > 0 {
				size = " " + units.HumanSize(float64(n.Blob.Size))
			}
			infoLogger.Printf("%s%s  %s%s", indent, e.Name, color.New(color.Faint).Sprint(n.MimeType), size)
		case *model.Subfs:
			infoLogger.Printf("%s%s  %s", indent, e.Name, color.MagentaString("-> "+n.Subject))
		default:
			infoLogger.Printf("%s%s  %s", indent, e.Name, color.YellowString("(unknown node)"))
		}
	}
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
