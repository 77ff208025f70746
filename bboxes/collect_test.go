package bboxes

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func writeMask(t *testing.T, path string, box [4]int) {
	t.Helper()
	img := imaging.New(64, 48, color.Black)
	for y := box[0]; y < box[2]; y++ {
		for x := box[1]; x < box[3]; x++ {
			img.Set(x, y, color.White)
		}
	}
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o755), test.ShouldBeNil)
	test.That(t, imaging.Save(img, path), test.ShouldBeNil)
}

func writeMaskTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeMask(t, filepath.Join(root, "S1", "Segments", "Walking", "c0", "0000.png"), [4]int{5, 10, 20, 30})
	writeMask(t, filepath.Join(root, "S1", "Segments", "Walking", "c0", "0001.png"), [4]int{6, 11, 21, 31})
	writeMask(t, filepath.Join(root, "S1", "Segments", "Walking", "c1", "0000.png"), [4]int{2, 3, 40, 50})
	writeMask(t, filepath.Join(root, "S2", "Segments", "Jog", "c0", "0000.png"), [4]int{0, 0, 10, 10})
	return root
}

func TestCollect(t *testing.T) {
	logger := golog.NewTestLogger(t)
	root := writeMaskTree(t)

	got, err := Collect(context.Background(), root, 4, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, got, test.ShouldContainKey, "S1")
	test.That(t, got, test.ShouldContainKey, "S2")
	test.That(t, got["S1"]["Walking"]["c0"], test.ShouldResemble, [][4]int{
		{5, 10, 20, 30},
		{6, 11, 21, 31},
	})
	test.That(t, got["S1"]["Walking"]["c1"], test.ShouldResemble, [][4]int{{2, 3, 40, 50}})
	test.That(t, got["S2"]["Jog"]["c0"], test.ShouldResemble, [][4]int{{0, 0, 10, 10}})
}

func TestCollectDeterministic(t *testing.T) {
	logger := golog.NewTestLogger(t)
	root := writeMaskTree(t)

	serial, err := Collect(context.Background(), root, 1, logger)
	test.That(t, err, test.ShouldBeNil)
	parallel, err := Collect(context.Background(), root, 4, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parallel, test.ShouldResemble, serial)

	// JSON output is byte-identical across worker counts.
	out1 := filepath.Join(t.TempDir(), "a.json")
	out2 := filepath.Join(t.TempDir(), "b.json")
	test.That(t, serial.WriteFile(out1), test.ShouldBeNil)
	test.That(t, parallel.WriteFile(out2), test.ShouldBeNil)
	data1, err := os.ReadFile(out1)
	test.That(t, err, test.ShouldBeNil)
	data2, err := os.ReadFile(out2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bytes.Equal(data1, data2), test.ShouldBeTrue)
}

func TestCollectDegenerateMask(t *testing.T) {
	logger := golog.NewTestLogger(t)
	root := writeMaskTree(t)
	// A 1px-wide mask region is a damaged frame.
	writeMask(t, filepath.Join(root, "S2", "Segments", "Jog", "c1", "0000.png"), [4]int{5, 5, 20, 6})

	_, err := Collect(context.Background(), root, 2, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "degenerate mask bbox")
	test.That(t, err.Error(), test.ShouldContainSubstring, "S2 Jog c1 frame 0")
}

func TestCollectEmptySequence(t *testing.T) {
	logger := golog.NewTestLogger(t)
	root := writeMaskTree(t)
	test.That(t, os.MkdirAll(filepath.Join(root, "S2", "Segments", "Jog", "c2"), 0o755), test.ShouldBeNil)

	_, err := Collect(context.Background(), root, 2, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no masks")
}

func TestCollectBadWorkers(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := Collect(context.Background(), t.TempDir(), 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least one worker")
}

func TestMaskBBoxPadding(t *testing.T) {
	// Offset image bounds must not leak into the reported box.
	img := image.NewNRGBA(image.Rect(10, 20, 74, 68))
	for y := 25; y < 45; y++ {
		for x := 14; x < 30; x++ {
			img.Set(x, y, color.White)
		}
	}
	box, err := maskBBox(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box, test.ShouldResemble, [4]int{5, 4, 25, 20})
}
