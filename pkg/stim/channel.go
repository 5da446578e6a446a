package stim

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/openfes/fes.go/pkg/uecu"
)

// Anode/cathode pairing constants for the four bipolar output pairs.
const (
	PairCh0 byte = 0x01
	PairCh1 byte = 0x23
	PairCh2 byte = 0x45
	PairCh3 byte = 0x67
)

// AspectRatio1to1 encodes a 1:1 first-phase to second-phase amplitude
// ratio (lower 4 bits first phase, upper 4 bits second phase).
const AspectRatio1to1 byte = 0x11

// DefaultInterphaseDelay is the interphase delay in microseconds used
// when a channel is created without an explicit value.
const DefaultInterphaseDelay = 100

// Channel is one stimulation output mapped to a physical electrode pair.
// The max limits are safety ceilings an operator may raise or lower at
// runtime; changing a max does not retroactively clamp an already staged
// command, the clamp applies on the next staging call.
type Channel struct {
	name          string
	number        byte
	maxAmplitude  int
	maxPulseWidth int
	ipDelay       int
	aspectRatio   byte
	anodeCathode  byte
}

// NewChannel creates a channel. number is the 4-bit channel index within
// the board's single port; anodeCathode is one of the PairCh constants.
func NewChannel(name string, number byte, maxAmplitude, maxPulseWidth int, anodeCathode byte) *Channel {
	return &Channel{
		name:          name,
		number:        number,
		maxAmplitude:  maxAmplitude,
		maxPulseWidth: maxPulseWidth,
		ipDelay:       DefaultInterphaseDelay,
		aspectRatio:   AspectRatio1to1,
		anodeCathode:  anodeCathode,
	}
}

// WithInterphaseDelay overrides the interphase delay (microseconds).
func (c *Channel) WithInterphaseDelay(usec int) *Channel {
	c.ipDelay = usec
	return c
}

// WithAspectRatio overrides the phase aspect ratio byte.
func (c *Channel) WithAspectRatio(ratio byte) *Channel {
	c.aspectRatio = ratio
	return c
}

// Name returns the human-readable channel name.
func (c *Channel) Name() string { return c.name }

// Number returns the channel index.
func (c *Channel) Number() byte { return c.number }

// PortChannel returns the port/channel addressing byte: lower 4 bits are
// the channel, upper 4 bits the port, which is always 0 on this board.
func (c *Channel) PortChannel() byte { return c.number & 0x0F }

// MaxAmplitude returns the current amplitude ceiling.
func (c *Channel) MaxAmplitude() int { return c.maxAmplitude }

// SetMaxAmplitude updates the amplitude ceiling.
func (c *Channel) SetMaxAmplitude(max int) { c.maxAmplitude = max }

// MaxPulseWidth returns the current pulse-width ceiling.
func (c *Channel) MaxPulseWidth() int { return c.maxPulseWidth }

// SetMaxPulseWidth updates the pulse-width ceiling.
func (c *Channel) SetMaxPulseWidth(max int) { c.maxPulseWidth = max }

// InterphaseDelay returns the interphase delay in microseconds.
func (c *Channel) InterphaseDelay() int { return c.ipDelay }

// AnodeCathode returns the polarity pairing byte.
func (c *Channel) AnodeCathode() byte { return c.anodeCathode }

// AspectRatio returns the phase aspect ratio byte.
func (c *Channel) AspectRatio() byte { return c.aspectRatio }

// pairs maps a channel's board position to its anode/cathode byte.
var pairs = []byte{PairCh0, PairCh1, PairCh2, PairCh3}

// ParseChannels parses a comma-separated list of name:number:max-amp:max-pw
// entries, as accepted on command lines. Each channel is paired with the
// anode/cathode byte of its board position. Channel numbers must be
// unique; they are the stable handles the driver resolves events by.
func ParseChannels(spec string) ([]*Channel, error) {
	var channels []*Channel
	seen := make(map[byte]bool)
	for _, item := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(item), ":")
		if len(fields) != 4 {
			return nil, fmt.Errorf("invalid channel spec %q", item)
		}
		number, err := strconv.ParseUint(fields[1], 0, 4)
		if err != nil {
			return nil, fmt.Errorf("invalid channel number in %q: %v", item, err)
		}
		if seen[byte(number)] {
			return nil, fmt.Errorf("duplicate channel number %d in %q", number, item)
		}
		seen[byte(number)] = true
		maxAmp, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid max amplitude in %q: %v", item, err)
		}
		maxPW, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid max pulse width in %q: %v", item, err)
		}
		channels = append(channels, NewChannel(
			fields[0], byte(number), maxAmp, maxPW, pairs[number%uint64(len(pairs))]))
	}
	return channels, nil
}

// setupFrame builds the channel-setup frame.
func (c *Channel) setupFrame() *uecu.Frame {
	hi, lo := uecu.SplitUint16(c.ipDelay)
	return &uecu.Frame{
		Type: uecu.MsgChannelSetup,
		Payload: []byte{
			c.PortChannel(),
			byte(c.maxAmplitude),
			byte(c.maxPulseWidth),
			hi, lo,
			c.aspectRatio,
			c.anodeCathode,
		},
	}
}

// Setup transmits the channel-setup frame and blocks for setupDelay so
// the board can process it. There is no read-back verification; success
// is inferred from the write succeeding.
func (c *Channel) Setup(t Transport, setupDelay time.Duration) error {
	if _, err := c.setupFrame().WriteTo(t); err != nil {
		glog.Errorf("channel %q setup: %v", c.name, err)
		return err
	}
	glog.Infof("channel %q setup sent", c.name)
	time.Sleep(setupDelay)
	return nil
}
