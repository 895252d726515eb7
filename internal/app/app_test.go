package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/fakebackend"
	"github.com/syntwin/console/internal/poll"
	"github.com/syntwin/console/internal/session"
	"github.com/syntwin/console/internal/stream"
	"github.com/syntwin/console/internal/views/debug"
	"github.com/syntwin/console/internal/wallclock"
)

func newModel(t *testing.T) (Model, *session.Controller, *fakebackend.Server) {
	t.Helper()
	srv := fakebackend.New(t)
	clock := &wallclock.Fake{}
	httpc := client.NewHTTPClient(srv.URL, time.Second)
	sc := session.New(httpc,
		stream.NewManager(httpc.StreamURL(), stream.WithTicker(clock.Tick)),
		poll.New(poll.WithTicker(clock.Tick)),
		charts.NewManager(charts.NewMemCanvas(), charts.WithSize(200, 120)),
		session.WithTicker(clock.Tick),
	)
	m := New(sc, Options{MarkdownStyle: "notty"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), sc, srv
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestViewBeforeResize(t *testing.T) {
	m := New(nil, Options{})
	if v := m.View(); v != "Initializing..." {
		t.Errorf("unexpected view %q", v)
	}
}

func TestViewIdle(t *testing.T) {
	m, _, _ := newModel(t)
	v := m.View()
	for _, want := range []string{"idle", "Live detection", "No suggestions", "No state data", "Analytics", "s:start"} {
		if !strings.Contains(v, want) {
			t.Errorf("expected %q in view:\n%s", want, v)
		}
	}
	if strings.Contains(v, "CONNECTION LOST") {
		t.Error("idle view should not show the connection banner")
	}
}

func TestReportOverlay(t *testing.T) {
	m, sc, _ := newModel(t)
	next, _ := m.Update(session.ReportMsg{Kind: session.ReportSummary, Title: "Summary", Body: `{"total": 7}`})
	m = next.(Model)
	if m.overlay != OverlayReport {
		t.Fatalf("expected report overlay, got %d", m.overlay)
	}
	if v := m.View(); !strings.Contains(v, `"total": 7`) {
		t.Errorf("report body missing:\n%s", v)
	}

	m, _ = press(m, "esc")
	if m.overlay != OverlayNone {
		t.Error("esc should close the report")
	}
	if sc.Report() != nil {
		t.Error("closing the overlay should dismiss the report")
	}
}

func TestReportOverlayError(t *testing.T) {
	m, _, _ := newModel(t)
	next, _ := m.Update(session.ReportMsg{Kind: session.ReportExport, Title: "Export", Err: errors.New("disk full")})
	m = next.(Model)
	if v := m.View(); !strings.Contains(v, "export failed: disk full") {
		t.Errorf("expected error text:\n%s", v)
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	m, _, srv := newModel(t)
	srv.JSON(http.MethodDelete, "/api/detection/clear", map[string]interface{}{"success": true, "message": "Detections cleared"})
	srv.JSON(http.MethodDelete, "/api/analytics/clear-logs", map[string]interface{}{"success": true, "message": "Logs cleared"})

	m, cmd := press(m, "C")
	if m.overlay != OverlayConfirmClear || cmd != nil {
		t.Fatal("C should only open the confirmation")
	}
	if !strings.Contains(m.View(), "Clear all data?") {
		t.Error("confirmation prompt missing")
	}

	m, cmd = press(m, "n")
	if m.overlay != OverlayNone || cmd != nil {
		t.Fatal("any key other than y should cancel")
	}

	m, _ = press(m, "C")
	m, cmd = press(m, "y")
	if cmd == nil {
		t.Fatal("y should issue the clear")
	}
	fakebackend.Run(t, cmd)
	if srv.Hits(http.MethodDelete, "/api/detection/clear") != 1 {
		t.Error("expected one clear request")
	}
}

func TestStatsKeyOpensReport(t *testing.T) {
	m, _, srv := newModel(t)
	srv.JSON(http.MethodGet, "/api/detection/stats", map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"total_detections": 12, "average_sentiment": 0.5},
	})

	m, cmd := press(m, "g")
	var report tea.Msg
	for _, msg := range fakebackend.Run(t, cmd) {
		if r, ok := msg.(session.ReportMsg); ok {
			report = r
		}
	}
	if report == nil {
		t.Fatal("g should fetch the detection stats")
	}
	next, _ := m.Update(report)
	m = next.(Model)
	v := m.View()
	for _, want := range []string{"Total detections: 12", "Average sentiment: 0.50"} {
		if !strings.Contains(v, want) {
			t.Errorf("expected %q in view:\n%s", want, v)
		}
	}
}

func TestStartRefusedWhileOffline(t *testing.T) {
	m, sc, _ := newModel(t)
	next, _ := m.Update(session.HealthMsg{Err: errors.New("connection refused")})
	m = next.(Model)

	m, cmd := press(m, "s")
	if cmd != nil {
		t.Error("start should be refused")
	}
	if sc.Intent() {
		t.Error("intent should stay false")
	}
	if v := m.View(); !strings.Contains(v, "offline") {
		t.Errorf("expected offline notice:\n%s", v)
	}
}

func TestConnectionLostBanner(t *testing.T) {
	m, sc, srv := newModel(t)
	next, cmd := m.Update(session.HealthMsg{})
	m = next.(Model)

	m, cmd = press(m, "s")
	if cmd == nil {
		t.Fatal("start should open the stream")
	}
	var opened tea.Msg
	for _, msg := range fakebackend.Run(t, cmd) {
		if _, ok := msg.(stream.OpenedMsg); ok {
			opened = msg
		}
	}
	if opened == nil {
		t.Fatal("no OpenedMsg")
	}
	conn := srv.Accept()
	next, cmd = m.Update(opened)
	m = next.(Model)
	if sc.State() != stream.Streaming {
		t.Fatalf("expected streaming, got %s", sc.State())
	}

	conn.Drop()
	var closed tea.Msg
	for _, msg := range fakebackend.Run(t, cmd) {
		if _, ok := msg.(stream.ClosedMsg); ok {
			closed = msg
		}
	}
	if closed == nil {
		t.Fatal("no ClosedMsg after drop")
	}
	next, _ = m.Update(closed)
	m = next.(Model)
	if v := m.View(); !strings.Contains(v, "CONNECTION LOST") || !strings.Contains(v, "1s") {
		t.Errorf("expected reconnect banner:\n%s", v)
	}
}

func TestDebugOverlayReceivesLogs(t *testing.T) {
	h := debug.NewHandler(slog.LevelDebug, 8)
	m, _, _ := newModel(t)
	m.events = h.Entries()

	slog.New(h).Warn("stream: connection lost", "code", 1006)
	next, cmd := m.Update(fakebackend.RunOne(t, m.listen()))
	m = next.(Model)
	if cmd == nil {
		t.Error("expected the model to keep listening")
	}

	m, _ = press(m, "d")
	if m.overlay != OverlayDebug {
		t.Fatal("d should open the event log")
	}
	if v := m.View(); !strings.Contains(v, "connection lost code=1006") {
		t.Errorf("expected log entry:\n%s", v)
	}
	m, _ = press(m, "esc")
	if m.overlay != OverlayNone {
		t.Error("esc should close the event log")
	}
}

func TestAnalyticsShowsMountedSurfaces(t *testing.T) {
	m, sc, _ := newModel(t)
	if v := m.View(); strings.Contains(v, charts.NoDataLabel) {
		t.Fatalf("nothing is mounted yet:\n%s", v)
	}

	msg, ok := fakebackend.RunOne(t, sc.RefreshCharts()).(session.ChartsMsg)
	if !ok {
		t.Fatal("expected ChartsMsg")
	}
	// A result from an older session is dropped by the controller, but the
	// surfaces it mounted are what the panel shows.
	msg.Epoch = 99
	next, _ := m.Update(msg)
	m = next.(Model)

	live := sc.LiveCharts()
	for i, c := range live {
		if c == nil {
			t.Fatalf("surface %d not mounted", i)
		}
	}
	if v := m.View(); strings.Count(v, charts.NoDataLabel) != 2 {
		t.Errorf("expected the mounted placeholders:\n%s", v)
	}
}
