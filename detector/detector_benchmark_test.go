package detector

import (
	"testing"

	"github.com/nvr-ai/fiducial/decode"
	"github.com/nvr-ai/fiducial/images/kernels"
	"github.com/nvr-ai/fiducial/test"
)

func benchmarkDetect(b *testing.B, opts ...Option) {
	d, err := New(enclosedConfig(), opts...)
	if err != nil {
		b.Fatal(err)
	}
	gen := test.NewMockFrameGenerator(640, 480)
	frame := gen.Tag(100, 100, 120, decode.Codebook[2])
	test.DrawTag(frame, 400, 250, 96, decode.Codebook[9])

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Detect(frame); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDetectSpatial(b *testing.B) {
	benchmarkDetect(b)
}

func BenchmarkDetectSpectral(b *testing.B) {
	benchmarkDetect(b, WithFilter(kernels.NewSpectral()))
}

func BenchmarkDetectSequential(b *testing.B) {
	benchmarkDetect(b, WithWorkers(1))
}
