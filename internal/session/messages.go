package session

import (
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/client"
)

// Fetch results carry the session epoch current when they were dispatched.
// A result whose epoch no longer matches is dropped.

// SuggestionsMsg delivers a suggestions fetch.
type SuggestionsMsg struct {
	Epoch uint64
	Snap  *client.SuggestionSnapshot
	Err   error
}

// StateMsg delivers a state fetch.
type StateMsg struct {
	Epoch uint64
	Snap  *client.StateSnapshot
	Err   error
}

// ChartsMsg delivers a completed chart refresh.
type ChartsMsg struct {
	Epoch     uint64
	Result    charts.Result
	Analytics *client.AnalyticsSnapshot
	Err       error
}

// HealthMsg delivers a health check result. It is never dropped.
type HealthMsg struct{ Err error }

// ReportKind identifies an operator action.
type ReportKind int

const (
	ReportSummary ReportKind = iota
	ReportRecent
	ReportClear
	ReportExport
	ReportStats
)

func (k ReportKind) String() string {
	switch k {
	case ReportSummary:
		return "summary"
	case ReportRecent:
		return "recent"
	case ReportClear:
		return "clear"
	case ReportExport:
		return "export"
	case ReportStats:
		return "stats"
	default:
		return "unknown"
	}
}

// ReportMsg is the outcome of an out-of-band operator action.
type ReportMsg struct {
	Kind  ReportKind
	Title string
	Body  string
	Err   error
}

type clearRefreshMsg struct{}

type frameWrittenMsg struct{ err error }
