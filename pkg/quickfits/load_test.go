package quickfits

import(
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsFITSAndBaseName(t *testing.T) {
	tests := []struct {
		filename string
		isFITS   bool
		base     string
	}{
		{"m31.fits", true, "m31"},
		{"/data/M31.FIT", true, "M31"},
		{"dir/ngc7000.fts.gz", true, "ngc7000"},
		{"flat.fits.zst", true, "flat"},
		{"notes.txt", false, "notes"},
		{"image.png.gz", false, "image"},
	}
	for _, tt := range tests {
		if got := IsFITS(tt.filename); got != tt.isFITS {
			t.Errorf("IsFITS(%q) = %v, want %v", tt.filename, got, tt.isFITS)
		}
		if got := BaseName(tt.filename); got != tt.base {
			t.Errorf("BaseName(%q) = %q, want %q", tt.filename, got, tt.base)
		}
	}
}

func TestLoadFilesAndDirs(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	dir := t.TempDir()
	sub := filepath.Join(dir, "night1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.fits", "notes.txt", filepath.Join("night1", "b.fit.gz"), filepath.Join("night1", "c.fts")} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfgFile := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(cfgFile, []byte("downscale: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBatch()
	if err := b.LoadFilesAndDirs(dir); err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "a.fits"),
		filepath.Join(sub, "b.fit.gz"),
		filepath.Join(sub, "c.fts"),
	}
	sort.Strings(b.Filenames)
	if diff := cmp.Diff(want, b.Filenames); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if b.Downscale != 4 {
		t.Errorf("base config not loaded: downscale=%d", b.Downscale)
	}

	if err := b.LoadFilesAndDirs(filepath.Join(dir, "missing")); err == nil {
		t.Errorf("missing arg: expected an error")
	}
}

func TestBatchRun(t *testing.T) {
	b := NewBatch()
	for i:=0; i<25; i++ {
		b.Filenames = append(b.Filenames, filepath.Join("d", string(rune('a'+i))+".fits"))
	}

	var calls int64
	boom := errors.New("boom")
	results := b.Run(4, func(filename string) error {
		atomic.AddInt64(&calls, 1)
		if filename == filepath.Join("d", "c.fits") {
			return boom
		}
		return nil
	})

	if calls != 25 || len(results) != 25 {
		t.Fatalf("got %d calls and %d results, want 25", calls, len(results))
	}
	for i, r := range results {
		if r.Filename != b.Filenames[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Filename, b.Filenames[i])
		}
		if wantErr := i == 2; (r.Err != nil) != wantErr {
			t.Errorf("%s: err %v", r.Filename, r.Err)
		}
	}

	if got := NewBatch().Run(0, func(string) error { return nil }); len(got) != 0 {
		t.Errorf("empty batch: got %d results", len(got))
	}
}
