package cmd

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/WaveringAna/wisp/pkg/engine"
	"github.com/WaveringAna/wisp/pkg/jobs"
	"github.com/WaveringAna/wisp/pkg/logging"
	"github.com/WaveringAna/wisp/pkg/model"
	"github.com/WaveringAna/wisp/pkg/storage"
	"github.com/WaveringAna/wisp/pkg/storage/localfs"
)

const defaultConcurrency = 5

// uploadCmd is the command to publish a site directory as a manifest record
var uploadCmd = &cobra.Command{
	Use:   "upload <directory>",
	Short: "Upload a site",
	Long: `Upload a site consisting of all files stored in a directory.

Every file is stored under its content identifier; files unchanged
since the last upload of the same site are reused, not re-uploaded.
The directory tree is committed as a manifest record named after the
site.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if wispFlags.upload.did == "" {
			wrapFatalln("a DID is required: set --did or the config file", nil)
			return
		}
		site := wispFlags.upload.site
		if site == "" {
			site = filepath.Base(filepath.Clean(args[0]))
		}
		logger, err := logging.New(wispFlags.root.logLevel)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}

		files, totalBytes, err := readSiteDir(args[0])
		if err != nil {
			wrapFatalln("read site directory", err)
			return
		}

		blobs := localfs.New(storeFs("blobs"))
		records := localfs.NewRecordStore(storeFs("records"))
		registry := jobs.New(jobs.Logger(logger))
		uploader := engine.New(blobs, records,
			engine.Logger(logger),
			engine.Registry(registry),
			engine.Workers(wispFlags.upload.concurrency),
		)

		req := engine.UploadRequest{
			DID:      wispFlags.upload.did,
			Site:     site,
			Files:    files,
			Previous: previousManifest(ctx, records, wispFlags.upload.did, site),
		}
		job := uploader.Begin(req)
		unsubscribe, err := registry.Subscribe(job.ID, printProgress)
		if err != nil {
			wrapFatalln("subscribe to upload job", err)
			return
		}
		defer unsubscribe()

		res, err := uploader.Run(ctx, job.ID, req)
		if err != nil {
			wrapFatalln("upload site", err)
			return
		}

		infoLogger.Printf("%s %s (%s read, %d files, %d uploaded, %d reused)",
			color.GreenString("committed"), res.URI,
			units.HumanSize(float64(totalBytes)),
			res.FileCount, res.Uploaded, res.Reused)
		for _, path := range res.Skipped {
			infoLogger.Printf("%s %s", color.RedString("skipped"), path)
		}
	},
}

// printProgress writes one line per finished file
func printProgress(ev jobs.Event) error {
	if ev.Type != jobs.EventProgress {
		return nil
	}
	p := ev.Job.Progress
	if p.CurrentFile == "" || p.CurrentFileStatus == "" {
		return nil
	}
	tint := color.RedString
	switch p.CurrentFileStatus {
	case "uploaded":
		tint = color.GreenString
	case "reused":
		tint = color.CyanString
	}
	infoLogger.Printf("%s %s (%d/%d)", tint(p.CurrentFileStatus), p.CurrentFile, p.FilesProcessed, p.TotalFiles)
	return nil
}

// readSiteDir collects every regular file below dir
func readSiteDir(dir string) ([]model.UploadedFile, int64, error) {
	fs := afero.NewBasePathFs(afero.NewOsFs(), dir)
	var files []model.UploadedFile
	var total int64
	err := afero.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimPrefix(path, "./"))
		total += int64(len(content))
		files = append(files, model.UploadedFile{
			Name:     name,
			Content:  content,
			MimeType: mimeTypeFor(name),
			Size:     int64(len(content)),
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func mimeTypeFor(name string) string {
	mt := mime.TypeByExtension(filepath.Ext(name))
	if mt == "" {
		return "application/octet-stream"
	}
	// manifests carry the bare type, parameters stay local
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}

// previousManifest loads the manifest of the site's last upload, when
// there was one
func previousManifest(ctx context.Context, records storage.RecordStore, did, site string) *model.Manifest {
	uri := model.ATURI{DID: did, Collection: model.FsCollection, RKey: site}.String()
	var prev model.Manifest
	if err := records.GetRecord(ctx, uri, &prev); err != nil {
		return nil
	}
	return &prev
}

func init() {
	addDIDFlag(uploadCmd)
	addSiteNameFlag(uploadCmd)
	addConcurrencyFactorFlag(uploadCmd, defaultConcurrency)

	rootCmd.AddCommand(uploadCmd)
}
