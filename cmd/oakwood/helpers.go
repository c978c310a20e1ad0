package main

import "time"

func formatDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format("2006-01-02")
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
