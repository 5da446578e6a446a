package stim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfes/fes.go/pkg/uecu"
)

func TestChannelSetupFrame(t *testing.T) {
	tr := &scriptTransport{}
	ch := NewChannel("Quad", 0, 50, 250, PairCh0).WithInterphaseDelay(300)
	require.NoError(t, ch.Setup(tr, 0))

	require.Equal(t,
		[]byte{0x04, 0x80, 0x47, 0x07, 0x00, 50, 250, 0x01, 0x2C, 0x11, 0x01, 0xC0},
		tr.wr.Bytes())

	frames, err := tr.frames()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, uecu.MsgChannelSetup, frames[0].Type)
}

func TestChannelSetupWriteFailure(t *testing.T) {
	tr := &scriptTransport{failWrite: 1}
	ch := NewChannel("Quad", 0, 50, 250, PairCh0)
	require.Equal(t, errWriteFailed, ch.Setup(tr, 0))
}

func TestChannelAccessors(t *testing.T) {
	ch := NewChannel("Ham", 2, 60, 200, PairCh2)
	require.Equal(t, "Ham", ch.Name())
	require.Equal(t, byte(2), ch.Number())
	require.Equal(t, byte(0x02), ch.PortChannel())
	require.Equal(t, byte(0x45), ch.AnodeCathode())
	require.Equal(t, AspectRatio1to1, ch.AspectRatio())
	require.Equal(t, DefaultInterphaseDelay, ch.InterphaseDelay())

	ch.SetMaxAmplitude(80)
	ch.SetMaxPulseWidth(300)
	require.Equal(t, 80, ch.MaxAmplitude())
	require.Equal(t, 300, ch.MaxPulseWidth())

	// the port is fixed, only the low 4 bits address a channel
	require.Equal(t, byte(0x0F), NewChannel("x", 0xFF, 0, 0, 0).PortChannel())
}

func TestParseChannels(t *testing.T) {
	channels, err := ParseChannels("Quad:0:50:250, Ham:1:60:200")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	require.Equal(t, byte(0), channels[0].Number())
	require.Equal(t, PairCh0, channels[0].AnodeCathode())
	require.Equal(t, "Ham", channels[1].Name())
	require.Equal(t, 60, channels[1].MaxAmplitude())
	require.Equal(t, 200, channels[1].MaxPulseWidth())
	require.Equal(t, PairCh1, channels[1].AnodeCathode())

	for _, spec := range []string{
		"Quad:0:50",
		"Quad:16:50:250",
		"Quad:0:x:250",
		"Quad:0:50:250,Ham:0:60:200", // channel numbers are unique handles
	} {
		_, err := ParseChannels(spec)
		require.Errorf(t, err, "spec %q", spec)
	}
}
