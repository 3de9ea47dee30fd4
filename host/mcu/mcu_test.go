package mcu

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"c28pwm/core"
	"c28pwm/protocol"
	"github.com/pkg/errors"
)

// loopback runs a core.Device on a MemoryBank behind an in-memory port.
type loopback struct {
	mu     sync.Mutex
	bank   *core.MemoryBank
	dev    *core.Device
	t      *protocol.Transport
	out    *protocol.ScratchOutput
	rx     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newLoopback() *loopback {
	l := &loopback{
		bank:   core.NewMemoryBank(),
		out:    protocol.NewScratchOutput(),
		rx:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
	l.dev = core.NewDevice(l.bank)
	l.t = protocol.NewTransport(l.out, l.dev.Handle)
	l.dev.SetSender(l.t)
	return l
}

func (l *loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.t.Receive(protocol.NewSliceInputBuffer(append([]byte(nil), p...)))
	l.rx <- append([]byte(nil), l.out.Result()...)
	l.out.Reset()
	return len(p), nil
}

func (l *loopback) Read(p []byte) (int, error) {
	select {
	case b := <-l.rx:
		return copy(p, b), nil
	case <-l.closed:
		return 0, io.EOF
	}
}

func (l *loopback) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func connect(t *testing.T) (*MCU, *loopback) {
	t.Helper()
	core.GetRegistry().Reset()
	t.Cleanup(core.GetRegistry().Reset)

	lb := newLoopback()
	m := New(lb)
	m.Timeout = time.Second
	t.Cleanup(func() { m.Close() })
	if err := m.Identify(); err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	return m, lb
}

func TestIdentify(t *testing.T) {
	m, _ := connect(t)

	d := m.Dictionary()
	if d.Version != protocol.Version {
		t.Errorf("Unexpected version %q", d.Version)
	}
	c, err := m.Command("set_pwm_duty")
	if err != nil {
		t.Fatalf("set_pwm_duty missing: %v", err)
	}
	if strings.Join(c.Params, " ") != "oid cmpa cmpb" {
		t.Errorf("Unexpected params %v", c.Params)
	}
	if d.Config["CLOCK_FREQ"] != "100000000" {
		t.Errorf("Unexpected CLOCK_FREQ %q", d.Config["CLOCK_FREQ"])
	}
	if _, err := m.Command("home_axis"); err == nil {
		t.Error("Expected unknown command error")
	}
}

func TestSendAndQuery(t *testing.T) {
	m, _ := connect(t)

	if err := m.Send("config_pwm", 0, 0, 100000, 0, 0, 0, 300, 0); err != nil {
		t.Fatalf("config_pwm failed: %v", err)
	}
	if err := m.Send("set_pwm_duty", 0, 400, 200); err != nil {
		t.Fatalf("set_pwm_duty failed: %v", err)
	}
	got, err := m.Query("query_pwm", []uint32{0}, "pwm_state")
	if err != nil {
		t.Fatalf("query_pwm failed: %v", err)
	}
	want := []uint32{0, 999, 0, 400, 200, 30, 30, 1}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pwm_state[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDeviceError(t *testing.T) {
	m, lb := connect(t)

	err := m.Send("config_pwm", 1, 0, 5, 0, 0, 0, 0, 0)
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DeviceError, got %v", err)
	}
	if derr.OID != 1 || derr.Code != core.PWM_ERR_RANGE {
		t.Errorf("Unexpected error %+v", derr)
	}
	if derr.Error() != "oid 1: out of range" {
		t.Errorf("Unexpected text %q", derr.Error())
	}
	if lb.bank.WriteCount() != 0 {
		t.Errorf("Rejected command wrote %d registers", lb.bank.WriteCount())
	}

	if _, err := m.Query("query_pwm", []uint32{7}, "pwm_state"); !errors.As(err, &derr) || derr.Code != core.PWM_ERR_OID {
		t.Errorf("Expected bad oid, got %v", err)
	}
}

func TestSendArgumentCount(t *testing.T) {
	m, _ := connect(t)
	if err := m.Send("set_pwm_duty", 0, 1); err == nil {
		t.Error("Expected argument count error")
	}
}

func TestParseArgs(t *testing.T) {
	m, _ := connect(t)

	got, err := m.ParseArgs("config_pwm", strings.Fields(
		"0 module=2 freq=0x4e20 count_mode=up_down policy_a=force_low policy_b=high_z deadband=300 hires=0"))
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	want := []uint32{0, 2, 20000, 2, 2, 1, 300, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	// up_down means different things to ePWM and timers
	got, err = m.ParseArgs("config_timer", strings.Fields(
		"0 function=fan freq=25000 duty=0 timer_mode=up_down interrupt=0 output=3 sync=0"))
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if got[1] != 2 || got[4] != 1 {
		t.Errorf("Unexpected config_timer args %v", got)
	}

	tests := []struct {
		name   string
		fields string
	}{
		{"missing", "0 400"},
		{"too many", "0 400 200 1"},
		{"unknown key", "0 400 duty=1"},
		{"twice", "0 400 oid=1"},
		{"bad value", "0 400 lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ParseArgs("set_pwm_duty", strings.Fields(tt.fields)); err == nil {
				t.Errorf("Expected error for %q", tt.fields)
			}
		})
	}
	if _, err := m.ParseArgs("spin", nil); err == nil {
		t.Error("Expected unknown command error")
	}
}

func TestExchangeReturnsResponses(t *testing.T) {
	m, _ := connect(t)
	if err := m.Send("config_timer", 0, 2, 20000, 5000, 2, 0, 3, 0); err != nil {
		t.Fatalf("config_timer failed: %v", err)
	}

	msgs, err := m.Exchange("query_timer_events", 0)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected one response, got %d", len(msgs))
	}
	name, args, err := m.Decode(msgs[0])
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if name != "timer_events" || len(args) != 5 || args[0] != 0 {
		t.Errorf("Unexpected response %s %v", name, args)
	}
}
