// Package bus describes the audio and event buses of an engine and lets a
// host add or remove them one at a time.
package bus

import "fmt"

// MediaType represents the type of bus
type MediaType int32

const (
	// MediaTypeAudio represents audio bus type
	MediaTypeAudio MediaType = 0
	// MediaTypeEvent represents event/MIDI bus type
	MediaTypeEvent MediaType = 1
)

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

func (d Direction) String() string {
	if d == DirectionInput {
		return "input"
	}
	return "output"
}

// Type represents the bus type
type Type int32

const (
	// TypeMain represents main bus
	TypeMain Type = 0
	// TypeAux represents auxiliary bus
	TypeAux Type = 1
)

// Info contains bus configuration
type Info struct {
	MediaType    MediaType
	Direction    Direction
	ChannelCount int32
	Name         string
	BusType      Type
	IsActive     bool
}

// Configuration holds the audio and event buses of one component.
// It is not safe for concurrent mutation.
type Configuration struct {
	audioBuses []Info
	eventBuses []Info
}

// GetBusCount returns the number of buses for a given type and direction
func (c *Configuration) GetBusCount(mediaType MediaType, direction Direction) int32 {
	count := int32(0)
	for _, b := range c.buses(mediaType) {
		if b.Direction == direction {
			count++
		}
	}
	return count
}

// AudioBusCount is GetBusCount for audio buses.
func (c *Configuration) AudioBusCount(direction Direction) int {
	return int(c.GetBusCount(MediaTypeAudio, direction))
}

// GetBusInfo returns the index-th bus of a type and direction, or nil.
func (c *Configuration) GetBusInfo(mediaType MediaType, direction Direction, index int32) *Info {
	buses := c.buses(mediaType)
	n := int32(0)
	for i := range buses {
		if buses[i].Direction != direction {
			continue
		}
		if n == index {
			return &buses[i]
		}
		n++
	}
	return nil
}

// AddAudioBus appends one audio bus. The first bus in a direction is the
// main bus, later ones are aux.
func (c *Configuration) AddAudioBus(direction Direction, channels int32) error {
	if channels <= 0 || channels > MaxChannels {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	n := c.AudioBusCount(direction)
	info := Info{
		MediaType:    MediaTypeAudio,
		Direction:    direction,
		ChannelCount: channels,
		Name:         fmt.Sprintf("Audio %s %d", direction, n+1),
		BusType:      TypeMain,
		IsActive:     true,
	}
	if n > 0 {
		info.BusType = TypeAux
	}
	c.audioBuses = append(c.audioBuses, info)
	return nil
}

// RemoveAudioBus drops the last audio bus of a direction.
// It returns false when there is none.
func (c *Configuration) RemoveAudioBus(direction Direction) bool {
	for i := len(c.audioBuses) - 1; i >= 0; i-- {
		if c.audioBuses[i].Direction == direction {
			c.audioBuses = append(c.audioBuses[:i], c.audioBuses[i+1:]...)
			return true
		}
	}
	return false
}

// MainOutputChannels returns the channel count of the first output bus, 0 if none.
func (c *Configuration) MainOutputChannels() int {
	if info := c.GetBusInfo(MediaTypeAudio, DirectionOutput, 0); info != nil {
		return int(info.ChannelCount)
	}
	return 0
}

// AcceptsEvents reports whether an event input bus exists.
func (c *Configuration) AcceptsEvents() bool {
	return c.GetBusCount(MediaTypeEvent, DirectionInput) > 0
}

// ProducesEvents reports whether an event output bus exists.
func (c *Configuration) ProducesEvents() bool {
	return c.GetBusCount(MediaTypeEvent, DirectionOutput) > 0
}

// AddEventBus adds an event bus (for MIDI input)
func (c *Configuration) AddEventBus(direction Direction, name string) {
	c.eventBuses = append(c.eventBuses, Info{
		MediaType:    MediaTypeEvent,
		Direction:    direction,
		ChannelCount: 1,
		Name:         name,
		BusType:      TypeMain,
		IsActive:     true,
	})
}

func (c *Configuration) buses(mediaType MediaType) []Info {
	if mediaType == MediaTypeEvent {
		return c.eventBuses
	}
	return c.audioBuses
}
