package bus

import (
	"errors"
	"fmt"
)

// MaxChannels is the largest channel count a single bus may carry.
const MaxChannels = 32

// Builder provides a fluent API for building bus configurations
type Builder struct {
	config *Configuration
}

// NewBuilder creates a new bus configuration builder
func NewBuilder() *Builder {
	return &Builder{config: &Configuration{}}
}

// WithStereoOutput adds a two channel output bus.
func (b *Builder) WithStereoOutput(name string) *Builder {
	return b.audio(DirectionOutput, name, 2)
}

// WithMonoOutput adds a one channel output bus.
func (b *Builder) WithMonoOutput(name string) *Builder {
	return b.audio(DirectionOutput, name, 1)
}

// WithEventInput adds a MIDI input bus.
func (b *Builder) WithEventInput(name string) *Builder {
	b.config.AddEventBus(DirectionInput, name)
	return b
}

func (b *Builder) audio(direction Direction, name string, channels int32) *Builder {
	typ := TypeMain
	if b.config.AudioBusCount(direction) > 0 {
		typ = TypeAux
	}
	b.config.audioBuses = append(b.config.audioBuses, Info{
		MediaType:    MediaTypeAudio,
		Direction:    direction,
		ChannelCount: channels,
		Name:         name,
		BusType:      typ,
		IsActive:     true,
	})
	return b
}

// Validate checks for a main output and sane channel counts.
func (b *Builder) Validate() error {
	if b.config.AudioBusCount(DirectionOutput) == 0 && !b.config.ProducesEvents() {
		return errors.New("configuration must have at least one main output bus")
	}
	for _, info := range b.config.audioBuses {
		if info.ChannelCount <= 0 || info.ChannelCount > MaxChannels {
			return fmt.Errorf("invalid channel count %d for bus %s", info.ChannelCount, info.Name)
		}
	}
	return nil
}

// Build returns the built configuration or an error
func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// MustBuild returns the built configuration or panics on error
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
