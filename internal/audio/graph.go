package audio

import (
	"fmt"
	"io"
)

// Media is a playable element that can be wrapped as a graph source once.
type Media interface {
	SampleRate() int
	ChannelCount() int
	// Claim returns the element's PCM stream. It fails on any call after
	// the first.
	Claim() (io.Reader, error)
}

// MediaFormat returns the PCM format of m.
func MediaFormat(m Media) Format {
	return Format{SampleRate: m.SampleRate(), Channels: m.ChannelCount()}
}

// Chain is one band's filter and the analyzer tapping it.
type Chain struct {
	Band     Band
	Filter   *BandFilter
	Analyzer *BandAnalyzer
}

// Graph routes a media source through three parallel band chains for
// analysis and, unfiltered, to the audio device.
type Graph struct {
	clock   *Clock
	source  *SourceNode
	chains  [NumBands]Chain
	outputs []Output
}

// NewGraph claims media, builds one chain per band tuned to cutoffs and
// connects the source to the device through clock. The output starts
// playing as soon as the clock runs.
func NewGraph(clock *Clock, media Media, cutoffs Cutoffs, spec AnalyzerSpec) (*Graph, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	stream, err := media.Claim()
	if err != nil {
		return nil, fmt.Errorf("creating media source: %w", err)
	}

	g := &Graph{
		clock:  clock,
		source: NewSourceNode(stream, media.ChannelCount()),
	}
	for _, b := range Bands {
		analyzer, err := NewBandAnalyzer(spec)
		if err != nil {
			return nil, err
		}
		filter := NewBandFilter(FilterSpecFor(b, cutoffs.Get(b)), media.SampleRate())
		g.source.Connect(filter)
		filter.Connect(analyzer)
		g.chains[b] = Chain{Band: b, Filter: filter, Analyzer: analyzer}
	}

	out := clock.connect(g.source)
	out.Play()
	g.outputs = append(g.outputs, out)
	return g, nil
}

// Clock returns the clock driving the graph.
func (g *Graph) Clock() *Clock { return g.clock }

// Chain returns the chain for b.
func (g *Graph) Chain(b Band) Chain { return g.chains[b] }

// Analyzer returns the analyzer for b.
func (g *Graph) Analyzer(b Band) *BandAnalyzer { return g.chains[b].Analyzer }

// TapCount returns the number of taps on the source.
func (g *Graph) TapCount() int { return g.source.Taps() }

// OutputCount returns the number of device connections.
func (g *Graph) OutputCount() int { return len(g.outputs) }

// Apply sets every band filter to its frequency in c.
func (g *Graph) Apply(c Cutoffs) {
	for _, b := range Bands {
		g.chains[b].Filter.SetFrequency(c.Get(b))
	}
}

// Volume returns the output volume in [0, 1].
func (g *Graph) Volume() float64 {
	return g.outputs[0].Volume()
}

// SetVolume sets the output volume, clamped to [0, 1]. Analysis taps are
// upstream of the volume and unaffected.
func (g *Graph) SetVolume(v float64) {
	v = max(0, min(1, v))
	for _, out := range g.outputs {
		out.SetVolume(v)
	}
}
