package quickfits

import(
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// A Batch is the set of FITS files named on a command line, plus the
// base configuration (from any .yaml file among them).
type Batch struct {
	Config
	Filenames   []string
}

func NewBatch() *Batch {
	return &Batch{Config:NewConfig()}
}

// IsFITS looks at the extension, allowing for compression.
func IsFITS(filename string) bool {
	name := strings.ToLower(filename)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".zst")

	switch filepath.Ext(name) {
	case ".fits", ".fit", ".fts": return true
	}
	return false
}

// BaseName strips the directory and all the FITS extensions, e.g.
// "/data/m31.fits.gz" becomes "m31".
func BaseName(filename string) string {
	name := filepath.Base(filename)
	for _, ext := range []string{".gz", ".zst"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (b *Batch)LoadFilesAndDirs(args ...string) (error) {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := b.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file, load it
			if err := b.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (b *Batch)loadFile(filename string) error {
	switch {
	case IsFITS(filename):
		b.Filenames = append(b.Filenames, filename)

	case strings.ToLower(filepath.Ext(filename)) == ".yaml":
		cfg, err := LoadConfig(filename)
		if err != nil {
			return fmt.Errorf("Loading %s as config YAML failed: %v", filename, err)
		}
		b.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)
	}

	return nil
}

// A Result is what happened to one file in a batch.
type Result struct {
	Filename string
	Err      error
}

// Run calls fn on every file, using a pool of nWorkers goroutines, and
// returns the results in the same order as Filenames. Each preview is
// independent, so nothing is shared between workers.
func (b *Batch)Run(nWorkers int, fn func(filename string) error) []Result {
	if nWorkers < 1 {
		nWorkers = 1
	}

	type job struct {
		i        int
		filename string
	}

	var wg sync.WaitGroup
	jobsChan := make(chan job, len(b.Filenames))
	results := make([]Result, len(b.Filenames))

	// Kick off worker pool
	for i:=0; i<nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobsChan {
				results[j.i] = Result{Filename:j.filename, Err:fn(j.filename)}
			}
		}()
	}

	// Feed in jobs
	for i, filename := range b.Filenames {
		jobsChan<- job{i, filename}
	}
	close(jobsChan)
	wg.Wait()

	return results
}
