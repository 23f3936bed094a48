package audio

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCutoffs = Cutoffs{Bass: 150, Mid: 1000, Treble: 5000}

func newTestGraph(t *testing.T, media *fakeMedia) (*Graph, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	clock, err := NewClock(dev)
	require.NoError(t, err)
	g, err := NewGraph(clock, media, testCutoffs, DefaultAnalyzerSpec)
	require.NoError(t, err)
	return g, dev
}

func TestNewGraphWiresThreeChainsAndOneOutput(t *testing.T) {
	g, dev := newTestGraph(t, &fakeMedia{rate: testRate, channels: 1})

	assert.Equal(t, NumBands, g.TapCount())
	assert.Equal(t, 1, g.OutputCount())
	require.Len(t, dev.outputs, 1)
	assert.True(t, dev.outputs[0].playing)

	kinds := []FilterKind{Lowpass, Bandpass, Highpass}
	for i, b := range Bands {
		c := g.Chain(b)
		assert.Equal(t, b, c.Band)
		assert.Equal(t, kinds[i], c.Filter.Kind())
		assert.Equal(t, testCutoffs.Get(b), c.Filter.Frequency())
		assert.Equal(t, 1, c.Filter.Outputs(), "analyzer is the only downstream node")
		assert.Equal(t, 2048, c.Analyzer.Resolution())
		assert.Same(t, c.Analyzer, g.Analyzer(b))
	}
}

func TestNewGraphFailsWhenMediaAlreadyClaimed(t *testing.T) {
	media := &fakeMedia{rate: testRate, channels: 1}
	newTestGraph(t, media)

	clock, err := NewClock(&fakeDevice{})
	require.NoError(t, err)
	_, err = NewGraph(clock, media, testCutoffs, DefaultAnalyzerSpec)
	assert.True(t, errors.Is(err, errClaimed))
}

func TestNewGraphRejectsInvalidAnalyzer(t *testing.T) {
	media := &fakeMedia{rate: testRate, channels: 1}
	clock, err := NewClock(&fakeDevice{})
	require.NoError(t, err)
	_, err = NewGraph(clock, media, testCutoffs, AnalyzerSpec{Resolution: 100})
	assert.ErrorIs(t, err, ErrInvalidAnalyzer)
	assert.Zero(t, media.claims, "media is not claimed for an invalid graph")
}

func TestApplySetsEveryFilter(t *testing.T) {
	g, _ := newTestGraph(t, &fakeMedia{rate: testRate, channels: 1})
	next := Cutoffs{Bass: 80, Mid: 2500, Treble: 9000}
	g.Apply(next)
	for _, b := range Bands {
		assert.Equal(t, next.Get(b), g.Chain(b).Filter.Frequency())
	}
	assert.Equal(t, 1.1, g.Chain(Mid).Filter.Q())
}

func TestFilterChangesDoNotAffectOutput(t *testing.T) {
	pcm := sinePCM(300, testRate, 8192, 0.9)
	pcm = append(pcm, sinePCM(7000, testRate, 8192, 0.4)...)

	read := func(c Cutoffs) []byte {
		g, dev := newTestGraph(t, &fakeMedia{pcm: pcm, rate: testRate, channels: 1})
		g.Apply(c)
		out, err := io.ReadAll(dev.outputs[0].r)
		require.NoError(t, err)
		return out
	}

	a := read(Cutoffs{Bass: 40, Mid: 300, Treble: 15000})
	b := read(Cutoffs{Bass: 480, Mid: 4000, Treble: 2000})
	assert.Equal(t, pcm, a)
	assert.Equal(t, pcm, b)
}

func TestAnalyzersSeeFilteredSignal(t *testing.T) {
	pcm := sinePCM(60, testRate, 4096, 0.9)
	g, dev := newTestGraph(t, &fakeMedia{pcm: pcm, rate: testRate, channels: 1})
	io.ReadAll(dev.outputs[0].r)

	bass := make([]float64, 2048)
	treble := make([]float64, 2048)
	g.Analyzer(Bass).ReadFloatTimeDomain(bass)
	g.Analyzer(Treble).ReadFloatTimeDomain(treble)
	assert.Greater(t, rms(bass), 0.5)
	assert.Less(t, rms(treble), 0.01)
}

func TestSetVolumeClamps(t *testing.T) {
	g, dev := newTestGraph(t, &fakeMedia{rate: testRate, channels: 1})
	g.SetVolume(1.7)
	assert.Equal(t, 1.0, dev.outputs[0].volume)
	g.SetVolume(-1)
	assert.Equal(t, 0.0, g.Volume())
}
