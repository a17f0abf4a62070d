package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		logLevel string
		output   string
	}
	upload struct {
		did         string
		site        string
		concurrency int
	}
}

var wispFlags flagsT

func addDIDFlag(cmd *cobra.Command) string {
	did := "did"
	cmd.Flags().StringVar(&wispFlags.upload.did, did, "", "The DID owning the target repository")
	return did
}

func addSiteNameFlag(cmd *cobra.Command) string {
	site := "site"
	cmd.Flags().StringVar(&wispFlags.upload.site, site, "", "The name of the site, used as the manifest record key")
	return site
}

func addConcurrencyFactorFlag(cmd *cobra.Command, defaultConcurrency int) string {
	concurrencyFactor := "concurrency-factor"
	cmd.Flags().IntVar(&wispFlags.upload.concurrency, concurrencyFactor, defaultConcurrency,
		"Heuristic on the amount of concurrency used by various operations.  "+
			"Turn this value down to use less memory, increase for faster operations.")
	return concurrencyFactor
}

// storeFs returns the filesystem a local store lives on, rooted below
// the output directory
func storeFs(subdir string) afero.Fs {
	out := wispFlags.root.output
	if out == "" {
		out = ".wisp"
	}
	return afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(out, subdir))
}
