package bus

// NewGenerator is an instrument layout: MIDI in, stereo out, no audio in.
func NewGenerator() *Configuration {
	return NewBuilder().
		WithStereoOutput("Stereo Out").
		WithEventInput("MIDI In").
		MustBuild()
}

// Layout is the wanted number of audio buses per direction, given as the
// channel count of each bus.
type Layout struct {
	Inputs  []int32
	Outputs []int32
}

// StereoOut is the default instrument layout.
var StereoOut = Layout{Outputs: []int32{2}}

// LayoutOf captures the audio buses of a configuration.
func LayoutOf(c *Configuration) Layout {
	var l Layout
	for _, info := range c.audioBuses {
		if info.Direction == DirectionInput {
			l.Inputs = append(l.Inputs, info.ChannelCount)
		} else {
			l.Outputs = append(l.Outputs, info.ChannelCount)
		}
	}
	return l
}

// MainOutputChannels returns the channel count of the first output bus, 0 if none.
func (l Layout) MainOutputChannels() int {
	if len(l.Outputs) == 0 {
		return 0
	}
	return int(l.Outputs[0])
}

// Reconcile adds or removes audio buses on c, one at a time, until its bus
// counts match l. It returns the number of changes made.
func Reconcile(c *Configuration, l Layout) (int, error) {
	changes := 0
	for _, dir := range []Direction{DirectionInput, DirectionOutput} {
		want := l.Inputs
		if dir == DirectionOutput {
			want = l.Outputs
		}
		for c.AudioBusCount(dir) < len(want) {
			if err := c.AddAudioBus(dir, want[c.AudioBusCount(dir)]); err != nil {
				return changes, err
			}
			changes++
		}
		for c.AudioBusCount(dir) > len(want) {
			c.RemoveAudioBus(dir)
			changes++
		}
	}
	return changes, nil
}
