// Package main provides the mvpose command line tool: offline bounding-box
// collection from segmentation masks and evaluation of precomputed 3D pose
// predictions against a label archive.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	"github.com/poselab/mvpose/bboxes"
	"github.com/poselab/mvpose/dataset"
)

func main() {
	app := &cli.App{
		Name:  "mvpose",
		Usage: "multi-view human pose dataset tooling",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "collect-bboxes",
				Usage: "extract per-frame bounding boxes from segmentation masks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "root",
						Usage:    "dataset root containing <subject>/Segments trees",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "number of parallel sequence workers",
						Value: runtime.NumCPU(),
					},
					&cli.StringFlag{
						Name:     "out",
						Usage:    "output JSON path",
						Required: true,
					},
				},
				Action: collectBBoxesAction,
			},
			{
				Name:  "evaluate",
				Usage: "score precomputed 3D pose predictions against a label archive",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "labels",
						Usage:    "path to the label archive",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "predictions",
						Usage:    "path to the predictions archive",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "kind",
						Usage: "dataset convention (human36m, mpii, humaneva, ama, totalcap, mpi3d)",
						Value: string(dataset.KindHuman36M),
					},
					&cli.IntFlag{
						Name:  "stride",
						Usage: "retain every n-th test frame",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "root-joint",
						Usage: "override the root joint for relative error",
						Value: -1,
					},
					&cli.BoolFlag{
						Name:  "with-damaged",
						Usage: "include the damaged Human3.6M test sequences",
					},
					&cli.BoolFlag{
						Name:  "transfer-cmu",
						Usage: "predictions use CMU joints; score on the shared Human3.6M subset",
					},
					&cli.BoolFlag{
						Name:  "transfer-human36m",
						Usage: "score Human3.6M predictions on the CMU-comparable subset",
					},
				},
				Action: evaluateAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) golog.Logger {
	if c.Bool("debug") {
		return golog.NewDebugLogger("mvpose")
	}
	return golog.NewLogger("mvpose")
}

func collectBBoxesAction(c *cli.Context) error {
	logger := newLogger(c)
	result, err := bboxes.Collect(c.Context, c.String("root"), c.Int("workers"), logger)
	if err != nil {
		return err
	}
	if err := result.WriteFile(c.String("out")); err != nil {
		return err
	}
	logger.Infow("bounding boxes written", "path", c.String("out"))
	return nil
}

func evaluateAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg := dataset.Config{
		LabelsPath:               c.String("labels"),
		PredictionsPath:          c.String("predictions"),
		Kind:                     dataset.Kind(c.String("kind")),
		Test:                     true,
		RetainEveryNFramesInTest: c.Int("stride"),
		WithDamagedActions:       c.Bool("with-damaged"),
	}
	ds, err := dataset.New(cfg, logger)
	if err != nil {
		return err
	}

	opts := dataset.EvalOptions{
		TransferCMUToHuman36M:      c.Bool("transfer-cmu"),
		TransferHuman36MToHuman36M: c.Bool("transfer-human36m"),
	}
	if root := c.Int("root-joint"); root >= 0 {
		opts.RootJoint = &root
	}

	score, result, err := ds.EvaluatePredictions(opts)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	fmt.Fprintf(c.App.Writer, "overall relative error: %.3f mm\n", score)
	logger.Infow("evaluation complete", "poses", ds.Len(), "error_mm", score)
	return nil
}
