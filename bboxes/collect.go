// Package bboxes batch-extracts per-frame ground-truth bounding boxes from
// segmentation masks and serializes them for label-archive generation.
//
// The input tree is root/<subject>/Segments/<action>/<camera>/<frame>.png,
// one binary mask per frame. Work is fanned out over a fixed-size pool, one
// job per (subject, action, camera); output is deterministic regardless of
// worker completion order, and the first job error fails the whole batch.
package bboxes

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const segmentsDir = "Segments"

// Result maps subject → action → camera → per-frame boxes in
// top-left-bottom-right order, frames in filename order.
type Result map[string]map[string]map[string][][4]int

// Collect walks the mask tree under root and extracts every sequence's
// boxes using the given number of workers. On any job failure the first
// error is returned and the partial result is discarded.
func Collect(ctx context.Context, root string, workers int, logger golog.Logger) (Result, error) {
	if workers < 1 {
		return nil, errors.Errorf("need at least one worker, got %d", workers)
	}
	jobs, err := listJobs(root)
	if err != nil {
		return nil, err
	}
	logger.Debugw("collecting bboxes", "root", root, "jobs", len(jobs), "workers", workers)

	var mu sync.Mutex
	out := Result{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			boxes, err := job.run()
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			actions, ok := out[job.subject]
			if !ok {
				actions = map[string]map[string][][4]int{}
				out[job.subject] = actions
			}
			cams, ok := actions[job.action]
			if !ok {
				cams = map[string][][4]int{}
				actions[job.action] = cams
			}
			cams[job.camera] = boxes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteFile serializes the result as indented JSON. Keys marshal in sorted
// order, so the output is byte-identical for identical inputs.
func (r Result) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type job struct {
	dir                     string
	subject, action, camera string
}

func listJobs(root string) ([]job, error) {
	subjects, err := sortedSubdirs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "list subjects under %s", root)
	}
	var jobs []job
	for _, subject := range subjects {
		if !strings.HasPrefix(subject, "S") {
			return nil, errors.Errorf("unexpected entry %q under %s: subjects are S-prefixed", subject, root)
		}
		segRoot := filepath.Join(root, subject, segmentsDir)
		actions, err := sortedSubdirs(segRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "subject %s has no readable %s directory", subject, segmentsDir)
		}
		for _, action := range actions {
			cameras, err := sortedSubdirs(filepath.Join(segRoot, action))
			if err != nil {
				return nil, errors.Wrapf(err, "list cameras for %s/%s", subject, action)
			}
			for _, cam := range cameras {
				jobs = append(jobs, job{
					dir:     filepath.Join(segRoot, action, cam),
					subject: subject,
					action:  action,
					camera:  cam,
				})
			}
		}
	}
	return jobs, nil
}

func sortedSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (j job) run() ([][4]int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s %s", j.subject, j.action, j.camera)
	}
	var frames []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			frames = append(frames, e.Name())
		}
	}
	sort.Strings(frames)
	if len(frames) == 0 {
		return nil, errors.Errorf("no masks in %s; %s %s %s", j.dir, j.subject, j.action, j.camera)
	}

	boxes := make([][4]int, len(frames))
	for i, name := range frames {
		mask, err := imaging.Open(filepath.Join(j.dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s %s frame %d", j.subject, j.action, j.camera, i)
		}
		box, err := maskBBox(mask)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s %s frame %d", j.subject, j.action, j.camera, i)
		}
		boxes[i] = box
	}
	return boxes, nil
}

// maskBBox returns the tight TLBR box around the nonzero mask region.
// Bottom and right are exclusive. A box under 2px a side means the mask is
// damaged.
func maskBBox(mask image.Image) ([4]int, error) {
	bounds := mask.Bounds()
	top, left := bounds.Max.Y, bounds.Max.X
	bottom, right := bounds.Min.Y, bounds.Min.X
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := mask.At(x, y).RGBA()
			if r|g|b == 0 {
				continue
			}
			if y < top {
				top = y
			}
			if y >= bottom {
				bottom = y + 1
			}
			if x < left {
				left = x
			}
			if x >= right {
				right = x + 1
			}
		}
	}
	if right-left < 2 || bottom-top < 2 {
		return [4]int{}, errors.Errorf("degenerate mask bbox (%d,%d)-(%d,%d)", left, top, right, bottom)
	}
	return [4]int{
		top - bounds.Min.Y,
		left - bounds.Min.X,
		bottom - bounds.Min.Y,
		right - bounds.Min.X,
	}, nil
}
