package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var outputFormats = []string{outputTable, outputJSON, outputYAML}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func validateOutput(format string) error {
	for _, f := range outputFormats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q, want one of %s", format, strings.Join(outputFormats, ", "))
}

// render writes v as JSON or YAML, or calls table for the table format.
func render(w io.Writer, v interface{}, table func() *uitable.Table) error {
	switch strings.ToLower(viper.GetString("output")) {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, table())
		return err
	}
}

func newTable(header ...interface{}) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = 60
	t.Wrap = true
	t.AddRow(header...)
	return t
}

// when formats a timestamp with its distance from now, e.g.
// "2024-05-01 10:00 (3 days ago)". The zero time prints as "-".
func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04"), humanize.Time(t))
}

func tagList(tags []gallery.Tag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag.String()
	}
	return strings.Join(parts, ", ")
}

func renderPhotos(w io.Writer, photos []gallery.PhotoRecord) error {
	return render(w, photos, func() *uitable.Table {
		t := newTable("#", "PATH", "TAKEN", "CAPTION", "TAGS")
		for i, p := range photos {
			t.AddRow(i+1, p.Path, when(p.Taken), p.Caption, tagList(p.Tags))
		}
		return t
	})
}

func renderAlbums(w io.Writer, summaries []gallery.Summary) error {
	return render(w, summaries, func() *uitable.Table {
		t := newTable("NAME", "PHOTOS", "EARLIEST", "LATEST", "MODIFIED")
		for _, s := range summaries {
			t.AddRow(s.Name, humanize.Comma(int64(s.Photos)), when(s.Earliest), when(s.Latest), when(s.Modified))
		}
		return t
	})
}

type userRow struct {
	Username string `json:"username" yaml:"username"`
	Admin    bool   `json:"admin" yaml:"admin"`
	Albums   int    `json:"albums" yaml:"albums"`
}

func renderUsers(w io.Writer, users []*gallery.User) error {
	rows := make([]userRow, len(users))
	for i, u := range users {
		rows[i] = userRow{Username: u.Username(), Admin: u.IsAdmin(), Albums: len(u.Albums())}
	}
	return render(w, rows, func() *uitable.Table {
		t := newTable("USERNAME", "ADMIN", "ALBUMS")
		for _, r := range rows {
			t.AddRow(r.Username, r.Admin, r.Albums)
		}
		return t
	})
}

type tagTypeRow struct {
	Type         string `json:"type" yaml:"type"`
	Multiplicity int    `json:"multiplicity" yaml:"multiplicity"`
}

func renderTagTypes(w io.Writer, tt gallery.TagTypes) error {
	names := tt.Names()
	rows := make([]tagTypeRow, len(names))
	for i, name := range names {
		n, _ := tt.Limit(name)
		rows[i] = tagTypeRow{Type: name, Multiplicity: n}
	}
	return render(w, rows, func() *uitable.Table {
		t := newTable("TYPE", "MULTIPLICITY")
		for _, r := range rows {
			limit := humanize.Comma(int64(r.Multiplicity))
			if r.Multiplicity == gallery.Unbounded {
				limit = "unbounded"
			}
			t.AddRow(r.Type, limit)
		}
		return t
	})
}
