package atlas

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/sprite-atlas-mcp/internal/imaging"
	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// ErrBadDirectory marks an export target that is missing, not a directory,
// or not writable.
var ErrBadDirectory = errors.New("bad output directory")

// ExportReport lists the files an export wrote.
type ExportReport struct {
	Dir    string             `json:"dir"`
	Format imaging.Format     `json:"format"`
	Crop   imaging.CropPolicy `json:"crop"`

	// Written holds the files in manifest order. On failure it holds the
	// files finished before the export stopped.
	Written []string `json:"written"`
}

// ExportAll writes every sprite into dir as <name><ext> in the given format,
// cropped with the session default.
//
// The first sprite that fails stops the export: pending sprites are skipped
// and the error is returned together with the report of what was written.
func (s *Session) ExportAll(ctx context.Context, dir, format string) (*ExportReport, error) {
	f, err := imaging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if err := checkDirectory(dir); err != nil {
		return nil, err
	}

	sprites := s.manifest.Sprites
	written := make([]string, len(sprites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	var mu sync.Mutex
	for i, sprite := range sprites {
		if gctx.Err() != nil {
			break
		}
		i, sprite := i, sprite
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := s.exportOne(dir, sprite, f)
			if err != nil {
				return err
			}
			mu.Lock()
			written[i] = path
			mu.Unlock()
			glog.V(2).Infof("exported %s", path)
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	report := &ExportReport{Dir: dir, Format: f, Crop: s.opts.Crop}
	for _, p := range written {
		if p != "" {
			report.Written = append(report.Written, p)
		}
	}
	if err != nil {
		return report, err
	}
	glog.V(1).Infof("exported %d sprites into %s", len(report.Written), dir)
	return report, nil
}

func (s *Session) exportOne(dir string, sprite manifest.Sprite, f imaging.Format) (string, error) {
	if !validFileName(sprite.Name) {
		return "", errors.Errorf("sprite %q: name is not usable as a file name", sprite.Name)
	}
	c, err := s.canvas(sprite, s.opts.Crop)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sprite.Name+f.Extension())
	if err := s.opts.Encoder.Save(path, c, f); err != nil {
		return "", errors.WithMessagef(err, "sprite %q", sprite.Name)
	}
	return path, nil
}

func validFileName(name string) bool {
	return name != "." && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// checkDirectory verifies dir exists and accepts new files.
func checkDirectory(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(ErrBadDirectory, "%s: %v", dir, err)
	}
	if !fi.IsDir() {
		return errors.Wrapf(ErrBadDirectory, "%s: not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return errors.Wrapf(ErrBadDirectory, "%s: not writable: %v", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
