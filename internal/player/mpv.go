package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"sync"
	"time"
)

const (
	dialAttempts = 50
	dialDelay    = 100 * time.Millisecond
	ipcTimeout   = 2 * time.Second
	pollInterval = 500 * time.Millisecond
	loadTimeout  = 20 * time.Second
	maxPollFails = 6
	eventBuffer  = 64
)

// MPV runs mpv as an idle subprocess and drives it over its JSON IPC socket.
// Playback state is observed by polling time-pos/duration/idle-active and
// translated into generation-tagged Events; mpv itself never learns about
// generations.
type MPV struct {
	cmd    *exec.Cmd
	conn   net.Conn
	reader *bufio.Reader
	logger *slog.Logger

	mu        sync.Mutex // serializes socket I/O and load bookkeeping
	gen       uint64
	active    bool // a load is current (still loading or playing)
	loading   bool
	loadedAt  time.Time
	pollFails int

	events   chan Event
	done     chan struct{}
	pollDone chan struct{}
	closing  sync.Once
}

// StartMPV spawns the mpv process and connects to its IPC socket. command is
// the mpv binary (path or name on PATH); socketPath is where mpv creates the
// socket.
func StartMPV(command, socketPath string, logger *slog.Logger) (*MPV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := exec.Command(command,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+socketPath,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", command, err)
	}

	// mpv creates the socket asynchronously after startup.
	var conn net.Conn
	var err error
	for i := 0; i < dialAttempts; i++ {
		conn, err = net.Dial("unix", socketPath)
		if err == nil {
			break
		}
		time.Sleep(dialDelay)
	}
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("connecting to mpv socket %s: %w", socketPath, err)
	}

	m := &MPV{
		cmd:      cmd,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		logger:   logger,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
		pollDone: make(chan struct{}),
	}
	go m.poll()
	return m, nil
}

func (m *MPV) Load(url string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.command("loadfile", url, "replace"); err != nil {
		return 0, err
	}
	if _, err := m.command("set_property", "pause", false); err != nil {
		return 0, err
	}
	m.gen++
	m.active = true
	m.loading = true
	m.loadedAt = time.Now()
	m.pollFails = 0
	return m.gen, nil
}

func (m *MPV) Play() error {
	return m.setProperty("pause", false)
}

func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

func (m *MPV) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.command("seek", seconds, "absolute")
	return err
}

func (m *MPV) SetVolume(level int) error {
	return m.setProperty("volume", level)
}

func (m *MPV) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.loading = false
	_, err := m.command("stop")
	return err
}

func (m *MPV) Events() <-chan Event { return m.events }

// Close shuts the poller down, kills the mpv process, and closes the event
// channel.
func (m *MPV) Close() error {
	var err error
	m.closing.Do(func() {
		close(m.done)
		<-m.pollDone
		m.conn.Close()
		if m.cmd.Process != nil {
			m.cmd.Process.Kill()
		}
		err = m.cmd.Wait()
		close(m.events)
	})
	return err
}

func (m *MPV) setProperty(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.command("set_property", name, value)
	return err
}

type mpvResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Event string          `json:"event"`
}

// command sends one IPC command and reads its reply, skipping any
// asynchronous event lines mpv interleaves on the socket. Callers hold mu.
func (m *MPV) command(args ...any) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return nil, err
	}
	m.conn.SetDeadline(time.Now().Add(ipcTimeout))
	if _, err := m.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("mpv ipc write: %w", err)
	}
	for {
		line, err := m.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("mpv ipc read: %w", err)
		}
		var resp mpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.Event != "" {
			continue
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (m *MPV) getFloat(name string) (float64, bool) {
	data, err := m.command("get_property", name)
	if err != nil || data == nil {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (m *MPV) getBool(name string) (bool, bool) {
	data, err := m.command("get_property", name)
	if err != nil || data == nil {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, false
	}
	return v, true
}

// poll observes mpv on a fixed interval and emits Events for the current
// load generation. A load counts as succeeded once mpv reports a duration;
// falling back to idle afterwards means the track ended.
func (m *MPV) poll() {
	defer close(m.pollDone)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}
		m.mu.Lock()
		if !m.active {
			m.mu.Unlock()
			continue
		}
		gen := m.gen
		if m.loading {
			if dur, ok := m.getFloat("duration"); ok && dur > 0 {
				m.loading = false
				m.mu.Unlock()
				m.emit(Event{Gen: gen, Kind: EventLoadOK, Duration: dur})
				continue
			}
			idle, _ := m.getBool("idle-active")
			elapsed := time.Since(m.loadedAt)
			// mpv drops straight back to idle when the stream is
			// unplayable; give it one poll interval of grace first.
			if (idle && elapsed > 2*pollInterval) || elapsed > loadTimeout {
				m.active = false
				m.loading = false
				m.mu.Unlock()
				m.emit(Event{Gen: gen, Kind: EventLoadFailed, Reason: "stream could not be opened"})
				continue
			}
			m.mu.Unlock()
			continue
		}
		if idle, ok := m.getBool("idle-active"); ok && idle {
			m.active = false
			m.pollFails = 0
			m.mu.Unlock()
			m.emit(Event{Gen: gen, Kind: EventEnded})
			continue
		}
		pos, okPos := m.getFloat("time-pos")
		dur, _ := m.getFloat("duration")
		if okPos {
			m.pollFails = 0
			m.mu.Unlock()
			m.emit(Event{Gen: gen, Kind: EventPosition, Position: pos, Duration: dur})
			continue
		}
		// Neither property readable while a track should be playing; after a
		// few misses the IPC connection or the process itself is gone.
		m.pollFails++
		broken := m.pollFails >= maxPollFails
		if broken {
			m.active = false
		}
		m.mu.Unlock()
		if broken {
			m.emit(Event{Gen: gen, Kind: EventFailed, Reason: "audio engine stopped responding"})
		}
	}
}

// emit never blocks; if the consumer is behind, the oldest information is
// simply superseded by the next poll.
func (m *MPV) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("engine event dropped", "kind", ev.Kind.String())
	}
}
