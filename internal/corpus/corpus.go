// Package corpus loads AIWolf game transcripts from a log archive or a
// directory of logs.
package corpus

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/transcript"
)

// maxEntrySize caps how much of a single archive member is read. Larger
// members are counted as failed.
var maxEntrySize int64 = 64 << 20

// Options bounds how much of the corpus is read.
type Options struct {
	// MaxGames stops loading after this many valid records. Zero or less
	// loads every game.
	MaxGames int
	// MaxLines is passed to the transcript parser for each entry.
	MaxLines int
	// Suffix selects archive members. Empty accepts both .log.gz and .log.
	Suffix string
}

// Stats summarizes one Load call.
type Stats struct {
	Entries int
	Parsed  int
	Dropped int
	Failed  int
}

// visitFunc receives one archive member. Returning done stops the walk.
type visitFunc func(name string, r io.Reader) (done bool, err error)

// Load reads games from path, which may be a .tar.gz, .tgz, .tar or .zip
// archive or a directory. Entries are visited in archive order (name order
// for directories). Entries that yield no record are dropped.
func Load(ctx context.Context, path string, opts Options) ([]*model.GameRecord, error) {
	games, _, err := LoadWithStats(ctx, path, opts)
	return games, err
}

// LoadWithStats is Load plus per-entry counters.
func LoadWithStats(ctx context.Context, path string, opts Options) ([]*model.GameRecord, Stats, error) {
	var (
		games []*model.GameRecord
		st    Stats
	)
	log := zap.L().With(zap.String("corpus", path))

	visit := func(name string, r io.Reader) (bool, error) {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		if !Matches(name, opts.Suffix) {
			return false, nil
		}
		st.Entries++

		raw, err := io.ReadAll(io.LimitReader(r, maxEntrySize+1))
		if err != nil {
			return true, eris.Wrapf(err, "corpus: read %s", name)
		}
		if int64(len(raw)) > maxEntrySize {
			st.Failed++
			log.Warn("corpus: skipping oversized entry",
				zap.String("entry", name),
				zap.Int64("limit_bytes", maxEntrySize),
			)
			return false, nil
		}
		game, err := transcript.ParseBytes(name, raw, opts.MaxLines)
		if err != nil {
			st.Failed++
			log.Warn("corpus: skipping unreadable entry", zap.String("entry", name), zap.Error(err))
			return false, nil
		}
		if !game.Valid() {
			st.Dropped++
			return false, nil
		}
		st.Parsed++
		games = append(games, game)
		return opts.MaxGames > 0 && len(games) >= opts.MaxGames, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, st, eris.Wrap(err, "corpus: stat")
	}

	switch {
	case info.IsDir():
		err = walkDir(path, visit)
	case hasSuffix(path, ".zip"):
		err = walkZIP(path, visit)
	case hasSuffix(path, ".tar.gz"), hasSuffix(path, ".tgz"):
		err = walkTar(path, true, visit)
	case hasSuffix(path, ".tar"):
		err = walkTar(path, false, visit)
	default:
		err = eris.Errorf("corpus: unsupported archive %q", filepath.Base(path))
	}
	if err != nil {
		return nil, st, err
	}

	log.Info("corpus loaded",
		zap.Int("entries", st.Entries),
		zap.Int("games", st.Parsed),
		zap.Int("dropped", st.Dropped),
		zap.Int("failed", st.Failed),
	)
	return games, st, nil
}

// Matches reports whether an archive member holds a transcript.
func Matches(name, suffix string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	if suffix != "" {
		return strings.HasSuffix(name, suffix)
	}
	return strings.HasSuffix(name, ".log.gz") || strings.HasSuffix(name, ".log")
}

func hasSuffix(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(path), ext)
}

func walkTar(path string, gzipped bool, visit visitFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "corpus: open archive")
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if gzipped {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return eris.Wrap(err, "corpus: gunzip archive")
		}
		defer zr.Close() //nolint:errcheck
		r = zr
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "corpus: read tar header")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		done, err := visit(hdr.Name, tr)
		if err != nil || done {
			return err
		}
	}
}

func walkZIP(path string, visit visitFunc) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return eris.Wrap(err, "corpus: open zip")
	}
	defer zr.Close() //nolint:errcheck

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		done, err := visitZIPEntry(f, visit)
		if err != nil || done {
			return err
		}
	}
	return nil
}

func visitZIPEntry(f *zip.File, visit visitFunc) (bool, error) {
	rc, err := f.Open()
	if err != nil {
		return true, eris.Wrapf(err, "corpus: open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck
	return visit(f.Name, rc)
}

func walkDir(root string, visit visitFunc) error {
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "corpus: walk directory")
	}
	sort.Strings(names)

	for _, name := range names {
		done, err := visitFile(root, name, visit)
		if err != nil || done {
			return err
		}
	}
	return nil
}

func visitFile(root, name string, visit visitFunc) (bool, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		return true, eris.Wrapf(err, "corpus: open %s", name)
	}
	defer f.Close() //nolint:errcheck
	return visit(name, f)
}
