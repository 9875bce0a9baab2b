package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/query"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Format selects how list and stats output is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be one of text, json, yaml", s)
	}
}

type recordView struct {
	models.Record `yaml:",inline"`
	CanReveal     bool `json:"canReveal" yaml:"canReveal"`
}

type listView struct {
	Account string       `json:"account,omitempty" yaml:"account,omitempty"`
	Records []recordView `json:"records" yaml:"records"`
}

func renderRecords(w io.Writer, f Format, account string, records []models.Record, now time.Time) error {
	view := listView{Account: account, Records: make([]recordView, 0, len(records))}
	for _, r := range records {
		view.Records = append(view.Records, recordView{Record: r, CanReveal: query.CanReveal(account, r)})
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, view)
	case FormatYAML:
		return writeYAML(w, view)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No FHE games found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tPLAYER\tCREATED\tACTION")
	for _, v := range view.Records {
		action := "-"
		if v.CanReveal {
			action = "reveal"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Category, status(v.Revealed), shortAddress(v.Owner),
			humanize.RelTime(v.CreatedTime(), now, "ago", "from now"), action)
	}
	return tw.Flush()
}

func renderStats(w io.Writer, f Format, st models.Stats) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, st)
	case FormatYAML:
		return writeYAML(w, st)
	}
	_, err := fmt.Fprintf(w, "Total games: %d\nRevealed:    %d\nHidden:      %d\n", st.Total, st.Revealed, st.Hidden)
	return err
}

func renderAccounts(w io.Writer, accounts []string, current string) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, "No accounts. Create one with: accounts new")
		return err
	}
	for _, a := range accounts {
		mark := " "
		if query.IsOwner(current, a) {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", mark, a); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func status(revealed bool) string {
	if revealed {
		return "REVEALED"
	}
	return "HIDDEN"
}

// shortAddress keeps the 0x prefix, four leading and four trailing hex
// digits.
func shortAddress(a string) string {
	if len(a) <= 14 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}
