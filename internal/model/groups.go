// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// DateGroup is one calendar day's worth of consecutive messages, with
// the label the chat view shows above them.
type DateGroup struct {
	Label    string
	Messages []Message
}

// monthFirstRegions write dates month-first. Everything outside this
// set falls back to day-first, which matches how the portal web UI
// localizes.
var monthFirstRegions = map[string]bool{
	"US": true,
	"PH": true,
	"CA": true,
}

// DateLabeler turns a message timestamp into a day heading relative to
// a fixed "now". Today and yesterday get words; anything older gets a
// numeric date whose field order follows the configured locale.
type DateLabeler struct {
	now        time.Time
	monthFirst bool
}

// NewDateLabeler builds a labeler for the given reference time and
// BCP 47 locale tag. An unparseable tag falls back to day-first order.
func NewDateLabeler(now time.Time, locale string) DateLabeler {
	monthFirst := false
	if tag, err := language.Parse(locale); err == nil {
		if region, _ := tag.Region(); region.IsCountry() {
			monthFirst = monthFirstRegions[region.String()]
		}
	}
	return DateLabeler{now: now, monthFirst: monthFirst}
}

// Label returns the heading for a timestamp.
func (l DateLabeler) Label(ts time.Time) string {
	ts = ts.In(l.now.Location())
	switch daysBetween(ts, l.now) {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	}
	if l.monthFirst {
		return fmt.Sprintf("%d/%d/%d", int(ts.Month()), ts.Day(), ts.Year())
	}
	return fmt.Sprintf("%d/%d/%d", ts.Day(), int(ts.Month()), ts.Year())
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}

// GroupByDate partitions an ordered message sequence into consecutive
// runs sharing a calendar day. It is a pure function of its inputs: it
// never reorders, drops or merges non-adjacent runs, so concatenating
// the groups reproduces the input exactly. When arrival order diverges
// from timestamp order the same label can appear in more than one
// group; that is a faithful rendering of the transcript, not a bug to
// sort away.
func GroupByDate(msgs []Message, labeler DateLabeler) []DateGroup {
	if len(msgs) == 0 {
		return nil
	}
	var groups []DateGroup
	for _, m := range msgs {
		label := labeler.Label(m.Timestamp)
		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, DateGroup{Label: label, Messages: []Message{m}})
	}
	return groups
}
