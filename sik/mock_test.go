package sik_test

import (
	"context"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/sikradio/sik"
)

// baseTimeout is the read timeout the mocked transport reports outside of
// any scoped change.
const baseTimeout = 5 * time.Second

type MockSequenceBuilder struct {
	transport *sik.MockTransport
	calls     []any
}

func NewMockSequence(transport *sik.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// scoped brackets calls with the save/set/restore of the read timeout.
func (b *MockSequenceBuilder) scoped(timeout time.Duration, calls ...any) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Timeout().Return(baseTimeout),
		b.transport.EXPECT().SetTimeout(timeout).Return(nil),
	)
	b.calls = append(b.calls, calls...)
	b.calls = append(b.calls,
		b.transport.EXPECT().SetTimeout(baseTimeout).Return(nil),
	)
	return b
}

func (b *MockSequenceBuilder) write(data string) any {
	return b.transport.EXPECT().Write([]byte(data)).Return(len(data), nil)
}

func (b *MockSequenceBuilder) readLine(line string) any {
	return b.transport.EXPECT().ReadLine().Return([]byte(line), nil)
}

func (b *MockSequenceBuilder) readN(n int, data string) any {
	return b.transport.EXPECT().ReadN(n).Return([]byte(data), nil)
}

// Escape expects "+++" answered by resp.
func (b *MockSequenceBuilder) Escape(resp string) *MockSequenceBuilder {
	return b.scoped(2*time.Second,
		b.write("+++"),
		b.readLine(resp),
	)
}

func (b *MockSequenceBuilder) EnterCommandMode() *MockSequenceBuilder {
	return b.Escape("OK\r\n")
}

func (b *MockSequenceBuilder) ExitCommandMode() *MockSequenceBuilder {
	return b.scoped(time.Second,
		b.write("ATO\r"),
		b.readLine("ATO\r\n"),
	)
}

// Command expects cmd, its echo and the given response lines followed by an
// empty read.
func (b *MockSequenceBuilder) Command(cmd string, lines ...string) *MockSequenceBuilder {
	calls := []any{
		b.write(cmd + "\r"),
		b.readLine(cmd + "\r\n"),
	}
	for _, line := range lines {
		calls = append(calls, b.readLine(line))
	}
	calls = append(calls, b.readLine(""))
	return b.scoped(100*time.Millisecond, calls...)
}

// Reboot expects ATZ, the second escape sequence and confirm delivered one
// byte at a time. An empty read follows unless confirm is exactly "OK\r\n".
func (b *MockSequenceBuilder) Reboot(confirm string) *MockSequenceBuilder {
	calls := []any{
		b.write("ATZ\r"),
		b.readN(3, "ATZ"),
		b.write("+++"),
	}
	for i := range len(confirm) {
		calls = append(calls, b.readN(1, confirm[i:i+1]))
	}
	if confirm != "OK\r\n" {
		calls = append(calls, b.readN(1, ""))
	}
	return b.scoped(time.Second, calls...)
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// sleepRecorder replaces the guard time wait and records requested delays.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

// newRadio builds a Radio on a mocked transport. The Dial expectation is
// registered immediately; further calls must be set up by the caller.
func newRadio(t *testing.T, ctrl *gomock.Controller, defaultMode sik.Mode) (*sik.Radio, *sik.MockTransport, *sleepRecorder) {
	t.Helper()

	mockTransport := sik.NewMockTransport(ctrl)
	mockDialer := sik.NewMockDialer(ctrl)
	mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)

	sleeper := &sleepRecorder{}
	config, err := sik.NewConfigBuilder().
		WithDialer(mockDialer).
		WithDefaultMode(defaultMode).
		WithSleeper(sleeper.sleep).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	r, err := sik.New(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	return r, mockTransport, sleeper
}
