// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"context"
	"errors"
	"net/netip"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/chuck/internal/command"
	"github.com/ManuGH/chuck/internal/dmx"
	"github.com/ManuGH/chuck/internal/dmx/dmxtest"
	"github.com/ManuGH/chuck/internal/fsm"
	"github.com/ManuGH/chuck/internal/mode"
	"github.com/ManuGH/chuck/internal/profile"
	"github.com/ManuGH/chuck/internal/queue"
	"github.com/ManuGH/chuck/internal/scene"
	"github.com/ManuGH/chuck/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var controllerAddr = netip.MustParseAddrPort("192.168.4.2:7110")

type fakeNotifier struct {
	mu       sync.Mutex
	addr     netip.AddrPort
	observed int
	current  mode.Mode
	pushed   []mode.Mode
}

func (f *fakeNotifier) Observe(addr netip.AddrPort) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addr.IsValid() {
		return false
	}
	f.addr = addr
	f.observed++
	return true
}

func (f *fakeNotifier) SetMode(m mode.Mode) {
	f.mu.Lock()
	f.current = m
	f.mu.Unlock()
}

func (f *fakeNotifier) Push() error {
	f.mu.Lock()
	f.pushed = append(f.pushed, f.current)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) pushes() []mode.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mode.Mode(nil), f.pushed...)
}

type harness struct {
	o        *Orchestrator
	rec      *dmxtest.Recorder
	arb      *dmx.Arbiter
	scenes   *scene.Store
	profiles *profile.Store
	notifier *fakeNotifier
	queue    *queue.Queue
}

func sceneFrame(t *testing.T, v byte) dmx.Frame {
	t.Helper()
	var f dmx.Frame
	require.NoError(t, f.Set(1, v))
	return f
}

func light(t *testing.T, name string, addr int) *profile.Profile {
	t.Helper()
	p, err := profile.New(name, addr, 4)
	require.NoError(t, err)
	require.NoError(t, p.SetOffset(profile.Dimmer, 1))
	require.NoError(t, p.SetOffset(profile.Red, 2))
	require.NoError(t, p.SetOffset(profile.Green, 3))
	require.NoError(t, p.SetOffset(profile.Blue, 4))
	return p
}

func newHarness(t *testing.T, nScenes, nLights int, opts Options) *harness {
	t.Helper()
	var frames []dmx.Frame
	for i := 0; i < nScenes; i++ {
		frames = append(frames, sceneFrame(t, byte(i+1)))
	}
	var lights []*profile.Profile
	for i := 0; i < nLights; i++ {
		lights = append(lights, light(t, "par", 1+i*4))
	}

	h := &harness{
		rec:      dmxtest.NewRecorder(),
		scenes:   scene.NewStore(frames...),
		profiles: profile.NewStore(lights...),
		notifier: &fakeNotifier{},
		queue:    queue.New(8),
	}
	h.arb = dmx.NewArbiter(h.rec)

	if opts.HighlightInterval == 0 {
		opts.HighlightInterval = time.Millisecond
	}
	if opts.PresetInterval == 0 {
		opts.PresetInterval = time.Millisecond
	}
	o, err := New(Deps{
		Arbiter:   h.arb,
		Profiles:  h.profiles,
		Scenes:    h.scenes,
		Queue:     h.queue,
		Heartbeat: h.notifier,
	}, opts)
	require.NoError(t, err)
	h.o = o

	t.Cleanup(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		_ = o.stopLive()
	})
	return h
}

// force restarts the state machine in m without running any transition.
func (h *harness) force(t *testing.T, m mode.Mode) {
	t.Helper()
	machine, err := fsm.New(m, h.o.transitions())
	require.NoError(t, err)
	h.o.machine = machine
}

func (h *harness) press(t *testing.T, a command.Action) {
	t.Helper()
	c := command.UserAction(a)
	c.Sender = controllerAddr
	require.NoError(t, h.o.Process(context.Background(), c))
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{}, Options{})
	require.Error(t, err)
}

func TestFirstLightIsPrimed(t *testing.T) {
	h := newHarness(t, 0, 2, Options{})
	p, err := h.profiles.Get(0)
	require.NoError(t, err)
	assert.Equal(t, byte(255), p.Value(profile.Dimmer))
	assert.Equal(t, profile.Color{B: 255}, p.Color())

	other, err := h.profiles.Get(1)
	require.NoError(t, err)
	assert.Zero(t, other.Value(profile.Dimmer))

	require.Equal(t, 1, h.rec.Writes(), "primed light reaches the port")
	out := h.rec.Last()
	assert.Equal(t, []byte{255, 0, 0, 255}, []byte{out.Get(1), out.Get(2), out.Get(3), out.Get(4)})
	assert.Zero(t, out.Get(5))
	assert.Equal(t, out, h.arb.Snapshot())
}

func TestPrimeFailure(t *testing.T) {
	newWithFailingPort := func(opts Options) (*dmxtest.Recorder, error) {
		rec := dmxtest.NewRecorder()
		rec.SetErr(errors.New("unplugged"))
		_, err := New(Deps{
			Arbiter:   dmx.NewArbiter(rec),
			Profiles:  profile.NewStore(light(t, "par", 1)),
			Scenes:    scene.NewStore(),
			Queue:     queue.New(1),
			Heartbeat: &fakeNotifier{},
		}, opts)
		return rec, err
	}

	_, err := newWithFailingPort(Options{})
	var ioErr *dmx.IOError
	require.ErrorAs(t, err, &ioErr)

	_, err = newWithFailingPort(Options{ContinueOnIOError: true})
	require.NoError(t, err)
}

func TestSenderIsObservedOnce(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	h.press(t, command.Up)
	h.press(t, command.Down)
	assert.Equal(t, controllerAddr, h.notifier.addr)
	assert.Equal(t, 1, h.notifier.observed)
}

func TestIdleButton1StartsHighlightWithFirstLight(t *testing.T) {
	h := newHarness(t, 0, 3, Options{})
	first, err := h.profiles.Get(0)
	require.NoError(t, err)

	h.press(t, command.Button1)
	require.Equal(t, mode.LightSelection, h.o.Mode())
	require.Equal(t, []mode.Mode{mode.LightSelection}, h.notifier.pushes())

	w := h.o.LiveWorker()
	require.NotNil(t, w)
	require.Equal(t, worker.KindHighlight, w.Kind())
	assert.Equal(t, []*profile.Profile{first}, h.o.highlight.Selected())

	h.press(t, command.Button2)
	assert.Equal(t, mode.Idle, h.o.Mode())
	assert.Nil(t, h.o.LiveWorker())
	select {
	case <-w.Done():
	default:
		t.Fatal("highlight worker was not joined")
	}
	assert.Equal(t, []mode.Mode{mode.LightSelection, mode.Idle}, h.notifier.pushes())
}

func TestIdleButton1WithoutLights(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	h.press(t, command.Button1)
	require.Equal(t, mode.LightSelection, h.o.Mode())
	assert.Empty(t, h.o.highlight.Selected())
}

func TestIdleButton2StartsChaseOverStoredScenes(t *testing.T) {
	h := newHarness(t, 3, 0, Options{})
	want := h.scenes.All()

	h.press(t, command.Button2)
	require.Equal(t, mode.Chase, h.o.Mode())
	require.NotNil(t, h.o.chase)
	assert.Equal(t, DefaultChaseDelay, h.o.chase.Delay())

	require.True(t, h.rec.WaitForWrites(6, 2*time.Second))
	h.press(t, command.Button2)
	require.Equal(t, mode.Idle, h.o.Mode())

	frames := h.rec.Frames()
	for i := 0; i < 6; i++ {
		assert.Equal(t, want[i%3], frames[i], "frame %d", i)
	}
}

func TestIdleButton2NeedsTwoScenes(t *testing.T) {
	h := newHarness(t, 1, 0, Options{})
	h.press(t, command.Button2)
	assert.Equal(t, mode.Idle, h.o.Mode())
	assert.Nil(t, h.o.LiveWorker())
	assert.Empty(t, h.notifier.pushes())
}

func TestChaseDelayIsClamped(t *testing.T) {
	h := newHarness(t, 2, 0, Options{
		ChaseDelay:    100 * time.Millisecond,
		MinChaseDelay: 100 * time.Millisecond,
		MaxChaseDelay: 300 * time.Millisecond,
		ChaseStep:     100 * time.Millisecond,
	})
	h.press(t, command.Button2)
	require.Equal(t, mode.Chase, h.o.Mode())

	h.press(t, command.Down)
	assert.Equal(t, 100*time.Millisecond, h.o.ChaseDelay())

	for i := 0; i < 5; i++ {
		h.press(t, command.Up)
	}
	assert.Equal(t, 300*time.Millisecond, h.o.ChaseDelay())
	assert.Equal(t, 300*time.Millisecond, h.o.chase.Delay())

	h.press(t, command.Up)
	assert.Equal(t, 300*time.Millisecond, h.o.ChaseDelay())

	h.press(t, command.Down)
	assert.Equal(t, 200*time.Millisecond, h.o.ChaseDelay())
	assert.Equal(t, []mode.Mode{mode.Chase}, h.notifier.pushes(), "delay changes do not notify")
}

func TestIdleSceneNavigationAndStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.yaml")
	h := newHarness(t, 2, 0, Options{SceneFile: path})

	h.press(t, command.Right)
	assert.Equal(t, 0, h.scenes.CurrentIndex())
	h.press(t, command.Left)
	assert.Equal(t, 1, h.scenes.CurrentIndex())

	// A stored scene is current, so select does not duplicate it.
	h.press(t, command.SelectShort)
	assert.Equal(t, 2, h.scenes.Count())

	h.press(t, command.SelectLong)
	assert.Equal(t, 1, h.scenes.Count())

	reloaded := scene.NewStore()
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, 1, reloaded.Count())

	// A working frame is stored on select.
	h.scenes.SetCurrent(sceneFrame(t, 99))
	h.press(t, command.SelectShort)
	assert.Equal(t, 2, h.scenes.Count())
	assert.Equal(t, 1, h.scenes.CurrentIndex())

	h.scenes.SetCurrent(dmx.Frame{})
	h.press(t, command.SelectLong)
	assert.Equal(t, 2, h.scenes.Count(), "transient frame cannot be deleted")

	assert.Empty(t, h.notifier.pushes())
	assert.Zero(t, h.rec.Writes())
}

func TestPreviewOnNavigateWritesScene(t *testing.T) {
	h := newHarness(t, 2, 0, Options{PreviewOnNavigate: true})
	h.press(t, command.Right)
	require.Equal(t, 1, h.rec.Writes())
	assert.Equal(t, h.scenes.Current(), h.rec.Last())
}

func TestLightSelectionCursorAndSelect(t *testing.T) {
	h := newHarness(t, 0, 3, Options{})
	lights := h.profiles.All()

	h.press(t, command.Button1)
	h.press(t, command.Left)
	assert.Equal(t, 2, h.o.LightIndex())
	assert.Same(t, lights[2], h.o.highlight.Pointed())
	h.press(t, command.SelectShort)
	h.press(t, command.Right)
	h.press(t, command.Right)
	assert.Equal(t, 1, h.o.LightIndex())
	h.press(t, command.SelectShort)

	h.press(t, command.Button1)
	require.Equal(t, mode.ControlSelection, h.o.Mode())
	assert.ElementsMatch(t, []*profile.Profile{lights[0], lights[1], lights[2]}, h.o.Selected())
	require.NotNil(t, h.o.preset)
	assert.Equal(t, worker.KindPreset, h.o.LiveWorker().Kind())
}

func TestPresetFlow(t *testing.T) {
	h := newHarness(t, 0, 2, Options{})
	h.press(t, command.Button1)
	h.press(t, command.Button1)
	require.Equal(t, mode.ControlSelection, h.o.Mode())

	h.press(t, command.Button1)
	require.Equal(t, mode.Preset, h.o.Mode())
	assert.Nil(t, h.o.LiveWorker())

	h.press(t, command.Left)
	assert.Equal(t, len(profile.Presets)-1, h.o.PresetIndex())
	first := h.o.Selected()[0]
	assert.Equal(t, profile.Presets[len(profile.Presets)-1], first.Color())
	last := h.rec.Last()
	assert.Equal(t, profile.Presets[len(profile.Presets)-1].R, last.Get(first.Address+1))

	h.press(t, command.Right)
	assert.Equal(t, 0, h.o.PresetIndex())
	h.press(t, command.Right)
	assert.Equal(t, 1, h.o.PresetIndex())

	h.press(t, command.Button2)
	require.Equal(t, mode.ControlSelection, h.o.Mode())
	assert.Equal(t, worker.KindPreset, h.o.LiveWorker().Kind())

	h.press(t, command.Button1)
	h.press(t, command.Button1)
	require.Equal(t, mode.LightSelection, h.o.Mode())
	assert.Equal(t, worker.KindHighlight, h.o.LiveWorker().Kind())
	assert.Equal(t, scene.Transient, h.scenes.CurrentIndex())
}

func TestControlSelectionButton2RestoresWorkingScene(t *testing.T) {
	h := newHarness(t, 0, 1, Options{})
	h.press(t, command.Button1)
	working := h.scenes.Current()
	h.press(t, command.Button1)
	require.Equal(t, mode.ControlSelection, h.o.Mode())

	h.press(t, command.Button2)
	require.Equal(t, mode.LightSelection, h.o.Mode())
	assert.Equal(t, worker.KindHighlight, h.o.LiveWorker().Kind())

	var found bool
	for _, f := range h.rec.Frames() {
		if f == working {
			found = true
		}
	}
	assert.True(t, found, "working frame was written")
}

func TestControlSelectionButton2WriteFailureKeepsVisualizer(t *testing.T) {
	h := newHarness(t, 0, 1, Options{ContinueOnIOError: true})
	h.press(t, command.Button1)
	h.press(t, command.Button1)
	require.Equal(t, mode.ControlSelection, h.o.Mode())

	h.rec.SetErr(errors.New("unplugged"))
	c := command.UserAction(command.Button2)
	c.Sender = controllerAddr
	err := h.o.Process(context.Background(), c)

	var ioErr *dmx.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, mode.ControlSelection, h.o.Mode())
	w := h.o.LiveWorker()
	require.NotNil(t, w)
	assert.Equal(t, worker.KindPreset, w.Kind())
	assert.Same(t, h.o.preset, w)
}

func TestPartyAndScary(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	h.press(t, command.ComboSequenceForward)
	assert.Equal(t, mode.Party, h.o.Mode())
	h.press(t, command.Up)
	assert.Equal(t, mode.Party, h.o.Mode())
	h.press(t, command.ComboButtons)
	assert.Equal(t, mode.Idle, h.o.Mode())
	h.press(t, command.ComboSequenceReverse)
	assert.Equal(t, mode.Scary, h.o.Mode())
	h.press(t, command.ComboButtons)
	assert.Equal(t, mode.Idle, h.o.Mode())
	assert.Equal(t, []mode.Mode{mode.Party, mode.Idle, mode.Scary, mode.Idle}, h.notifier.pushes())
}

func TestNonUserActionDataPushesHeartbeat(t *testing.T) {
	for _, m := range mode.All() {
		t.Run(m.String(), func(t *testing.T) {
			h := newHarness(t, 0, 0, Options{})
			h.force(t, m)
			c := command.JoystickMove(10, -10)
			c.Sender = controllerAddr
			require.NoError(t, h.o.Process(context.Background(), c))

			assert.Equal(t, m, h.o.Mode())
			if m == mode.ColorWheel {
				assert.Empty(t, h.notifier.pushes())
			} else {
				assert.Equal(t, []mode.Mode{m}, h.notifier.pushes())
			}
		})
	}
}

func TestPollDoesNotNotify(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	for _, k := range []command.PacketKind{command.PacketPoll, command.PacketPollReply} {
		require.NoError(t, h.o.Process(context.Background(), command.Command{Packet: k, Sender: controllerAddr}))
	}
	assert.Empty(t, h.notifier.pushes())
	assert.Equal(t, mode.Idle, h.o.Mode())
}

func TestInvalidCommandIsDiscarded(t *testing.T) {
	h := newHarness(t, 0, 0, Options{})
	bad := command.Command{Packet: command.PacketData, Data: command.DataUserAction, Action: command.Action(0x40)}
	require.NoError(t, h.o.Process(context.Background(), bad))
	assert.Empty(t, h.notifier.pushes())
	assert.Equal(t, mode.Idle, h.o.Mode())
}

func TestIOErrorIsSurfaced(t *testing.T) {
	h := newHarness(t, 0, 1, Options{})
	h.press(t, command.Button1)
	h.press(t, command.Button1)
	h.press(t, command.Button1)
	require.Equal(t, mode.Preset, h.o.Mode())

	h.rec.SetErr(errors.New("usb gone"))
	c := command.UserAction(command.Right)
	err := h.o.Process(context.Background(), c)
	var ioErr *dmx.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, mode.Preset, h.o.Mode())
}

func TestAtMostOneWorkerWritesAtATime(t *testing.T) {
	h := newHarness(t, 3, 3, Options{ChaseDelay: 100 * time.Millisecond})
	h.rec.Hold = 200 * time.Microsecond

	seq := []command.Action{
		command.Button2, command.Button2, // chase and back
		command.Button1, command.Right, command.SelectShort, command.Button1, // select, visualise
		command.Button2, command.Button1, command.Button1, command.Right, // back, forward, preset
		command.Button2, command.Button1, command.Button1, // visualise, preset, commit
		command.Button2, command.Button2, // idle, chase
		command.Up, command.Button2,
	}
	for _, a := range seq {
		h.press(t, a)
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, mode.Idle, h.o.Mode())
	assert.Zero(t, h.rec.Overlaps())
}

func TestRunProcessesQueueAndStopsWorkers(t *testing.T) {
	h := newHarness(t, 2, 0, Options{PopTimeout: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.o.Run(ctx) }()

	c := command.UserAction(command.Button2)
	c.Sender = controllerAddr
	require.NoError(t, h.queue.Push(ctx, c))
	require.Eventually(t, func() bool { return h.o.Mode() == mode.Chase }, 2*time.Second, 5*time.Millisecond)

	w := h.o.LiveWorker()
	require.NotNil(t, w)
	cancel()
	require.NoError(t, <-done)
	select {
	case <-w.Done():
	default:
		t.Fatal("chase worker still running after Run returned")
	}
	assert.Nil(t, h.o.LiveWorker())
}

func TestRunReturnsWorkerIOError(t *testing.T) {
	h := newHarness(t, 2, 0, Options{PopTimeout: 5 * time.Millisecond})
	h.rec.SetErr(errors.New("usb gone"))
	h.press(t, command.Button2)

	err := h.o.Run(context.Background())
	var ioErr *dmx.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestRunContinuesOnIOErrorWhenAsked(t *testing.T) {
	h := newHarness(t, 2, 0, Options{PopTimeout: 5 * time.Millisecond, ContinueOnIOError: true})
	h.rec.SetErr(errors.New("usb gone"))
	h.press(t, command.Button2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.o.Run(ctx) }()
	require.Eventually(t, func() bool { return h.o.LiveWorker() == nil }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
