package stim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfes/fes.go/pkg/uecu"
)

func testChannels() []*Channel {
	return []*Channel{
		NewChannel("Quad", 0, 150, 250, PairCh0),
		NewChannel("Ham", 1, 150, 250, PairCh1),
	}
}

func TestStimulatorEnable(t *testing.T) {
	tr := &scriptTransport{}
	s := NewStimulator("left leg", tr.opener(), testChannels()).WithSetupDelay(0)

	require.NoError(t, s.Enable())
	require.True(t, s.Enabled())

	// one setup frame per channel, in configuration order
	frames, err := tr.frames()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	for i, f := range frames {
		require.Equal(t, uecu.MsgChannelSetup, f.Type)
		require.Equal(t, byte(i), f.Payload[0])
	}
}

func TestStimulatorEnableOpenFailure(t *testing.T) {
	openErr := errors.New("port busy")
	s := NewStimulator("left leg", OpenFunc(func() (Transport, error) {
		return nil, openErr
	}), testChannels())
	require.Equal(t, openErr, s.Enable())
	require.False(t, s.Enabled())
}

func TestStimulatorEnableSetupFailure(t *testing.T) {
	tr := &scriptTransport{failWrite: 2}
	s := NewStimulator("left leg", tr.opener(), testChannels()).WithSetupDelay(0)
	require.Equal(t, errWriteFailed, s.Enable())
	require.False(t, s.Enabled())
	require.True(t, tr.closed)
}

func TestDisableNeverEnabled(t *testing.T) {
	tr := &scriptTransport{}
	s := NewStimulator("left leg", tr.opener(), testChannels())
	s.Disable()
	require.False(t, s.Enabled())
	require.Zero(t, tr.wr.Len())
	require.False(t, tr.closed)
}

func TestDisableWithoutSchedule(t *testing.T) {
	tr := &scriptTransport{}
	s := NewStimulator("left leg", tr.opener(), testChannels()).WithSetupDelay(0)
	require.NoError(t, s.Enable())
	tr.wr.Reset()

	// no schedule was created, so no halt frame goes out
	s.Disable()
	require.False(t, s.Enabled())
	require.Zero(t, tr.wr.Len())
	require.True(t, tr.closed)
}

func TestDisabledRejectsOperations(t *testing.T) {
	tr := &scriptTransport{}
	s := NewStimulator("left leg", tr.opener(), testChannels())
	ch := s.Channels()[0]

	require.Equal(t, ErrNotEnabled, s.CreateSchedule(0x7E, 50))
	require.Equal(t, ErrNotEnabled, s.AddEvent(ch, uecu.EventStim))
	require.Equal(t, ErrNotEnabled, s.AddEvents(s.Channels(), uecu.EventStim))
	require.Equal(t, ErrNotEnabled, s.Begin())
	require.Equal(t, ErrNotEnabled, s.SetAmp(ch, 10))
	require.Equal(t, ErrNotEnabled, s.WritePW(ch, 10))
	_, err := s.Update()
	require.Equal(t, ErrNotEnabled, err)
	require.Zero(t, tr.wr.Len())
}

func TestStimulatorSession(t *testing.T) {
	tr := &scriptTransport{}
	channels := testChannels()
	s := NewStimulator("left leg", tr.opener(), channels).WithSetupDelay(0)
	require.NoError(t, s.Enable())
	tr.wr.Reset()

	tr.reply(&uecu.Frame{Type: uecu.MsgCreateScheduleReply, Payload: []byte{0x03}})
	require.NoError(t, s.CreateSchedule(0x7E, 50))
	id, err := s.Schedule().ID()
	require.NoError(t, err)
	require.Equal(t, byte(0x03), id)

	// 50 Hz -> 20 ms period
	frames, err := tr.frames()
	require.NoError(t, err)
	require.Equal(t, []byte{0x7E, 0x00, 20}, frames[0].Payload)
	tr.wr.Reset()

	tr.reply(&uecu.Frame{Type: uecu.MsgCreateEventReply, Payload: []byte{0x05}})
	tr.reply(&uecu.Frame{Type: uecu.MsgCreateEventReply, Payload: []byte{0x06}})
	require.NoError(t, s.AddEvents(channels, uecu.EventStim))
	require.Equal(t, 2, s.Schedule().NumEvents())
	tr.wr.Reset()

	require.NoError(t, s.Begin())
	tr.wr.Reset()

	require.NoError(t, s.SetAmp(channels[0], 120))
	require.NoError(t, s.WritePW(channels[0], 200))

	results, err := s.Update()
	require.NoError(t, err)
	require.Len(t, results, 2)

	frames, err = tr.frames()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0x05, 200, 120, 0x00}, frames[0].Payload)

	amps, pws, maxAmps, maxPWs := s.Snapshot()
	require.Equal(t, []int{120, 0}, amps)
	require.Equal(t, []int{200, 0}, pws)
	require.Equal(t, []int{150, 150}, maxAmps)
	require.Equal(t, []int{250, 250}, maxPWs)

	s.Disable()
	require.False(t, s.Enabled())
	require.True(t, tr.closed)

	// disabled again is a no-op
	s.Disable()
}

func TestStimulatorUpdateDrainsReplies(t *testing.T) {
	tr := &scriptTransport{}
	s := NewStimulator("left leg", tr.opener(), testChannels()).WithSetupDelay(0)
	require.NoError(t, s.Enable())
	tr.reply(&uecu.Frame{Type: uecu.MsgCreateScheduleReply, Payload: []byte{0x03}})
	require.NoError(t, s.CreateSchedule(0x7E, 50))

	// stray bytes from the board must be consumed by Update
	tr.pending = append(tr.pending, 0xAA, 0xBB)
	_, err := s.Update()
	require.NoError(t, err)
	require.Empty(t, tr.pending)
}

func TestUpdateSnapshotAlignsWithChannels(t *testing.T) {
	tr := &scriptTransport{}
	channels := testChannels()
	s := NewStimulator("left leg", tr.opener(), channels).WithSetupDelay(0)
	require.NoError(t, s.Enable())

	tr.reply(&uecu.Frame{Type: uecu.MsgCreateScheduleReply, Payload: []byte{0x03}})
	require.NoError(t, s.CreateSchedule(0x7E, 50))

	// events registered in reverse channel order
	tr.reply(&uecu.Frame{Type: uecu.MsgCreateEventReply, Payload: []byte{0x05}})
	require.NoError(t, s.AddEvent(channels[1], uecu.EventStim))
	tr.reply(&uecu.Frame{Type: uecu.MsgCreateEventReply, Payload: []byte{0x06}})
	require.NoError(t, s.AddEvent(channels[0], uecu.EventStim))

	require.NoError(t, s.SetAmp(channels[0], 40))
	require.NoError(t, s.SetAmp(channels[1], 90))
	require.NoError(t, s.UpdateMaxAmp(channels[1], 99))
	_, err := s.Update()
	require.NoError(t, err)

	amps, _, maxAmps, _ := s.Snapshot()
	require.Equal(t, []int{40, 90}, amps)
	require.Equal(t, []int{150, 99}, maxAmps)
}

func TestChannelLookup(t *testing.T) {
	s := NewStimulator("left leg", (&scriptTransport{}).opener(), testChannels())

	ch, ok := s.ChannelByName("Ham")
	require.True(t, ok)
	require.Equal(t, byte(1), ch.Number())
	_, ok = s.ChannelByName("Calf")
	require.False(t, ok)

	ch, ok = s.ChannelByNumber(0)
	require.True(t, ok)
	require.Equal(t, "Quad", ch.Name())
	_, ok = s.ChannelByNumber(9)
	require.False(t, ok)
}

func TestUpdateMaxLimits(t *testing.T) {
	channels := testChannels()
	s := NewStimulator("left leg", (&scriptTransport{}).opener(), channels)

	// lookup is by channel number, a caller-side copy works
	copyCh := NewChannel("Quad", 0, 0, 0, PairCh0)
	require.NoError(t, s.UpdateMaxAmp(copyCh, 80))
	require.NoError(t, s.UpdateMaxPW(copyCh, 220))
	require.Equal(t, 80, channels[0].MaxAmplitude())
	require.Equal(t, 220, channels[0].MaxPulseWidth())

	other := NewChannel("Calf", 7, 0, 0, PairCh3)
	require.Equal(t, ErrNoChannel, s.UpdateMaxAmp(other, 10))
	require.Equal(t, ErrNoChannel, s.UpdateMaxPW(other, 10))
}
