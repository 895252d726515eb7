package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/syntwin/console/internal/client"
)

// Summary fetches the analytics summary.
func (c *Controller) Summary() tea.Cmd {
	httpc := c.http
	return func() tea.Msg {
		raw, err := httpc.Summary(context.Background())
		if err != nil {
			return ReportMsg{Kind: ReportSummary, Title: "Summary", Err: err}
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			buf.Reset()
			buf.Write(raw)
		}
		return ReportMsg{Kind: ReportSummary, Title: "Summary", Body: buf.String()}
	}
}

// Recent fetches the most recent detections.
func (c *Controller) Recent() tea.Cmd {
	httpc, limit := c.http, c.query.RecentLimit
	return func() tea.Msg {
		title := fmt.Sprintf("Recent detections (last %d)", limit)
		rows, err := httpc.Recent(context.Background(), limit)
		if err != nil {
			return ReportMsg{Kind: ReportRecent, Title: title, Err: err}
		}
		return ReportMsg{Kind: ReportRecent, Title: title, Body: formatRecent(rows)}
	}
}

// Stats fetches the detection totals.
func (c *Controller) Stats() tea.Cmd {
	httpc := c.http
	return func() tea.Msg {
		st, err := httpc.DetectionStats(context.Background())
		if err != nil {
			return ReportMsg{Kind: ReportStats, Title: "Detection stats", Err: err}
		}
		body := fmt.Sprintf("Total detections: %d\nAverage sentiment: %.2f", st.TotalDetections, st.AverageSentiment)
		return ReportMsg{Kind: ReportStats, Title: "Detection stats", Body: body}
	}
}

func formatRecent(rows []client.Detection) string {
	if len(rows) == 0 {
		return "No detections recorded."
	}
	var b strings.Builder
	for _, d := range rows {
		sentiment := "0.00"
		if d.Sentiment != nil {
			sentiment = fmt.Sprintf("%.2f", *d.Sentiment)
		}
		fmt.Fprintf(&b, "%s  %-10s %-10s %-8s %6s\n",
			d.Timestamp, orNA(d.Emotion), orNA(d.Posture), orNA(d.Eyes), sentiment)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return client.NotAvailable
	}
	return s
}

// ClearData deletes the stored detections, then the analytics logs. On
// success the display resets and the charts refresh after the clear delay.
func (c *Controller) ClearData() tea.Cmd {
	httpc := c.http
	return func() tea.Msg {
		ctx := context.Background()
		det, err := httpc.ClearDetections(ctx)
		if err != nil {
			return ReportMsg{Kind: ReportClear, Title: "Clear data", Err: fmt.Errorf("clear detections: %w", err)}
		}
		logs, err := httpc.ClearLogs(ctx)
		if err != nil {
			return ReportMsg{Kind: ReportClear, Title: "Clear data", Err: fmt.Errorf("clear logs: %w", err)}
		}
		var lines []string
		for _, s := range []string{det, logs} {
			if s != "" {
				lines = append(lines, s)
			}
		}
		if len(lines) == 0 {
			lines = append(lines, "All data cleared.")
		}
		return ReportMsg{Kind: ReportClear, Title: "Clear data", Body: strings.Join(lines, "\n")}
	}
}

// Export downloads the Excel export into the export directory.
func (c *Controller) Export() tea.Cmd {
	httpc := c.http
	path := filepath.Join(c.exportDir, "syntwin-export-"+c.now().Format("20060102-150405")+".xlsx")
	return func() tea.Msg {
		n, err := exportTo(httpc, path)
		if err != nil {
			return ReportMsg{Kind: ReportExport, Title: "Export", Err: err}
		}
		return ReportMsg{Kind: ReportExport, Title: "Export", Body: fmt.Sprintf("Wrote %d bytes to %s", n, path)}
	}
}

func exportTo(httpc *client.HTTPClient, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := httpc.ExportExcel(context.Background(), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("export: %w", err)
	}
	return n, nil
}
