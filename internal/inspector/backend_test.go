package inspector

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/types"
)

type call struct {
	name  string
	args  []string
	stdin []byte
}

type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	result *launcher.Result
	err    error
	delay  time.Duration
	count  atomic.Int32

	// stream is written by Stream before it waits for ctx or returns
	// streamErr.
	stream    string
	streamErr error
	block     bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, stdin []byte) (*launcher.Result, error) {
	f.count.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args, stdin: stdin})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) Stream(ctx context.Context, name string, args []string, w io.Writer) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()
	if _, err := io.WriteString(w, f.stream); err != nil {
		return err
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.streamErr
}

func (f *fakeRunner) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func ok(stdout string) *launcher.Result {
	return &launcher.Result{Stdout: []byte(stdout)}
}

func testConfig() Config {
	return Config{Python: "python3", Driver: "/opt/driver.py", Tool: "frida", KillTool: "frida-kill"}
}

func TestDevices(t *testing.T) {
	r := &fakeRunner{result: ok(`[{"id":"local","name":"Local System","type":"local"},{"id":"emulator-5554","name":"Pixel","type":"usb"}]`)}
	cfg := testConfig()
	cfg.RemoteAddresses = []string{"10.0.0.2:27042"}
	b := New(cfg, r)

	devices, err := b.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 2 || devices[1].Type != types.DeviceUSB {
		t.Fatalf("unexpected devices %+v", devices)
	}

	c := r.last()
	if c.name != "python3" {
		t.Errorf("expected python3, got %s", c.name)
	}
	want := "/opt/driver.py devices 10.0.0.2:27042"
	if got := strings.Join(c.args, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestApps(t *testing.T) {
	r := &fakeRunner{result: ok(`[{"identifier":"com.example.App","name":"Example","pid":0},{"identifier":"com.other","name":"Other","pid":1234}]`)}
	b := New(testConfig(), r)

	apps, err := b.Apps(context.Background(), "emulator-5554")
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 apps, got %d", len(apps))
	}
	if apps[0].Running() || !apps[1].Running() {
		t.Errorf("unexpected running state %+v", apps)
	}
	if got := strings.Join(r.last().args, " "); got != "/opt/driver.py apps emulator-5554" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestDeviceType(t *testing.T) {
	r := &fakeRunner{result: ok(`"remote"`)}
	b := New(testConfig(), r)

	dt, err := b.DeviceType(context.Background(), "remote@10.0.0.2:27042")
	if err != nil {
		t.Fatal(err)
	}
	if dt != types.DeviceRemote {
		t.Errorf("expected remote, got %s", dt)
	}
}

func TestClasses(t *testing.T) {
	r := &fakeRunner{result: ok(`["a.b.C","a.D"]`)}
	b := New(testConfig(), r)

	names, err := b.Classes(context.Background(), "local", 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a.b.C" {
		t.Errorf("unexpected names %v", names)
	}
	if got := strings.Join(r.last().args, " "); got != "/opt/driver.py classes local 42" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestQuery_NotFound(t *testing.T) {
	r := &fakeRunner{result: &launcher.Result{ExitCode: 1, Stderr: []byte("Unable to find process with pid 42\n")}}
	b := New(testConfig(), r)

	_, err := b.Classes(context.Background(), "local", 42)
	if !types.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	var nf *types.NotFoundError
	errors.As(err, &nf)
	if nf.Kind != "process" || nf.ID != "42" {
		t.Errorf("unexpected not found %+v", nf)
	}
}

func TestQuery_DeviceNotFound(t *testing.T) {
	r := &fakeRunner{result: &launcher.Result{ExitCode: 1, Stderr: []byte("device not found")}}
	b := New(testConfig(), r)

	_, err := b.Processes(context.Background(), "gone")
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != "device" {
		t.Errorf("expected device kind, got %s", nf.Kind)
	}
}

func TestQuery_Transport(t *testing.T) {
	r := &fakeRunner{result: &launcher.Result{ExitCode: 2, Stderr: []byte("Traceback: boom")}}
	b := New(testConfig(), r)

	_, err := b.Devices(context.Background())
	var te *types.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.ExitCode != 2 || te.Stderr != "Traceback: boom" {
		t.Errorf("unexpected transport error %+v", te)
	}
}

func TestQuery_MalformedJSON(t *testing.T) {
	r := &fakeRunner{result: ok("not json")}
	b := New(testConfig(), r)

	if _, err := b.Devices(context.Background()); !types.IsTransport(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestQuery_RunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("exec: python3: not found in $PATH")}
	b := New(testConfig(), r)

	if _, err := b.Devices(context.Background()); !types.IsTransport(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestQuery_Coalesced(t *testing.T) {
	r := &fakeRunner{result: ok(`[]`), delay: 100 * time.Millisecond}
	b := New(testConfig(), r)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Devices(context.Background()); err != nil {
				t.Errorf("Devices failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := r.count.Load(); n >= 5 {
		t.Errorf("expected concurrent calls to be coalesced, got %d invocations", n)
	}
}

func TestQuery_CancelledCallerDoesNotFailOthers(t *testing.T) {
	r := &fakeRunner{result: ok(`[{"id":"local","name":"Local System","type":"local"}]`), delay: 200 * time.Millisecond}
	b := New(testConfig(), r)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := b.Devices(first)
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	secondErr := make(chan error, 1)
	var devices []types.Device
	go func() {
		var err error
		devices, err = b.Devices(context.Background())
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled caller to get context.Canceled, got %v", err)
	}
	if err := <-secondErr; err != nil {
		t.Fatalf("expected second caller to succeed, got %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("expected 1 device, got %d", len(devices))
	}
	if n := r.count.Load(); n != 1 {
		t.Errorf("expected one shared backend call, got %d", n)
	}
}

func TestLaunch(t *testing.T) {
	r := &fakeRunner{result: ok("     ____\n4321\n[Local::com.example.App]-> \n")}
	b := New(testConfig(), r)

	pid, err := b.Launch(context.Background(), "emulator-5554", "com.example.App", types.SessionArgs{"--runtime", "v8"})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if pid != 4321 {
		t.Errorf("expected pid 4321, got %d", pid)
	}

	c := r.last()
	if c.name != "frida" {
		t.Errorf("expected frida, got %s", c.name)
	}
	want := "-f com.example.App --device emulator-5554 --no-pause -q -e Process.id --runtime v8"
	if got := strings.Join(c.args, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLaunch_ShortOutput(t *testing.T) {
	r := &fakeRunner{result: ok("oops\n")}
	b := New(testConfig(), r)

	if _, err := b.Launch(context.Background(), "local", "com.example.App", nil); !types.IsTransport(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestTerminate(t *testing.T) {
	r := &fakeRunner{result: ok("")}
	b := New(testConfig(), r)

	if err := b.Terminate(context.Background(), types.ParseDevice("emulator-5554"), 77); err != nil {
		t.Fatal(err)
	}
	c := r.last()
	if c.name != "frida-kill" {
		t.Errorf("expected frida-kill, got %s", c.name)
	}
	if got := strings.Join(c.args, " "); got != "--device emulator-5554 77" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestTerminate_RemoteHost(t *testing.T) {
	r := &fakeRunner{result: ok("")}
	cfg := testConfig()
	cfg.EnableRemote = true
	b := New(cfg, r)

	if err := b.Terminate(context.Background(), types.ParseDevice("remote@10.0.0.2:27042"), 77); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(r.last().args, " "); got != "-H 10.0.0.2:27042 77" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestTerminate_RemoteWithoutPrefix(t *testing.T) {
	r := &fakeRunner{result: ok("")}
	cfg := testConfig()
	cfg.EnableRemote = true
	b := New(cfg, r)

	dev := types.Device{ID: "10.0.0.2:27042", Name: "10.0.0.2:27042", Type: types.DeviceRemote}
	if err := b.Terminate(context.Background(), dev, 77); err != nil {
		t.Fatal(err)
	}
	want := types.KillArgs(dev, 77, true).String()
	if got := strings.Join(r.last().args, " "); got != want || got != "-H 10.0.0.2:27042 77" {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpload_SendsStdin(t *testing.T) {
	r := &fakeRunner{result: ok("")}
	b := New(testConfig(), r)

	if err := b.Upload(context.Background(), "local", 9, "/tmp/x", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	c := r.last()
	if string(c.stdin) != "payload" {
		t.Errorf("expected stdin payload, got %q", c.stdin)
	}
	if got := strings.Join(c.args, " "); got != "/opt/driver.py upload /tmp/x --device local --pid 9" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestDownload(t *testing.T) {
	r := &fakeRunner{result: ok("file-bytes")}
	b := New(testConfig(), r)

	data, err := b.Download(context.Background(), "local", 9, "/etc/hosts")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "file-bytes" {
		t.Errorf("unexpected data %q", data)
	}
}

func TestResolveDevice(t *testing.T) {
	r := &fakeRunner{result: ok(`[{"id":"local","name":"Local System","type":"local"},{"id":"remote@10.0.0.2:27042","name":"10.0.0.2:27042","type":"remote"}]`)}
	b := New(testConfig(), r)

	d, err := ResolveDevice(context.Background(), b, "remote@10.0.0.2:27042")
	if err != nil {
		t.Fatal(err)
	}
	if d.Type != types.DeviceRemote || d.Host() != "10.0.0.2:27042" {
		t.Errorf("unexpected device %+v", d)
	}

	if _, err := ResolveDevice(context.Background(), b, "gone"); !types.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
