package dataset

import (
	"testing"

	"go.viam.com/test"
)

func validConfig() Config {
	return Config{
		LabelsPath: "/tmp/labels.zip",
		Kind:       KindHuman36M,
		Test:       true,
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	cfg = validConfig()
	cfg.Test = false
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = validConfig()
	cfg.Kind = "unknown"
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = validConfig()
	cfg.LabelsPath = ""
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = validConfig()
	cfg.ImageWidth = 256
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	cfg.ImageHeight = 256
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	cfg = validConfig()
	cfg.RetainEveryNFramesInTest = -1
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig().withDefaults()
	test.That(t, cfg.RetainEveryNFramesInTest, test.ShouldEqual, 1)
	test.That(t, cfg.RetainEveryNFramesInTrain, test.ShouldEqual, DefaultTrainStride)
	test.That(t, cfg.BBoxScale, test.ShouldAlmostEqual, DefaultBBoxScale, 1e-12)
	test.That(t, cfg.CuboidSide, test.ShouldAlmostEqual, DefaultCuboidSide, 1e-12)

	cfg = validConfig()
	cfg.RetainEveryNFramesInTest = 13
	cfg.BBoxScale = 1.0
	cfg = cfg.withDefaults()
	test.That(t, cfg.RetainEveryNFramesInTest, test.ShouldEqual, 13)
	test.That(t, cfg.BBoxScale, test.ShouldAlmostEqual, 1.0, 1e-12)
}

func TestConfigResizeEnabled(t *testing.T) {
	cfg := validConfig()
	test.That(t, cfg.resizeEnabled(), test.ShouldBeFalse)
	cfg.ImageWidth, cfg.ImageHeight = 256, 192
	test.That(t, cfg.resizeEnabled(), test.ShouldBeTrue)
}
