package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

const (
	searchByDate    = "date"
	searchByTags    = "tags"
	searchByCaption = "caption"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search all of the user's albums",
	Long: `Search every album of the user by date taken, by tags or by caption. Each photo is
listed once even when it sits in several albums. With --save-as the results are also
saved as a new album.`,
}

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("start", "", "First day (YYYY-MM-DD) or RFC 3339 instant of the date range")
	f.String("end", "", "Last day (YYYY-MM-DD) or RFC 3339 instant of the date range")
	f.String("mode", gallery.Single.String(), "Tag search mode: single, and, or")
	f.String("type1", "", "First tag type")
	f.String("value1", "", "First tag value")
	f.String("type2", "", "Second tag type")
	f.String("value2", "", "Second tag value")
	f.String("text", "", "Caption text to look for, ignoring case")
}

// runSearch reads the search flags of cmd and runs the search named by.
func runSearch(cmd *cobra.Command, s *service.Session, by string) (string, []*gallery.Photo, error) {
	f := cmd.Flags()
	switch by {
	case searchByDate:
		startFlag, _ := f.GetString("start")
		endFlag, _ := f.GetString("end")
		start, end, err := gallery.ParseDateRange(startFlag, endFlag, time.Local)
		if err != nil {
			return "", nil, err
		}
		photos, err := s.SearchByDate(start, end)
		return fmt.Sprintf("taken %s .. %s", start.Format(time.RFC3339), end.Format(time.RFC3339)), photos, err
	case searchByTags:
		modeFlag, _ := f.GetString("mode")
		mode, err := gallery.ParseSearchMode(modeFlag)
		if err != nil {
			return "", nil, err
		}
		q := gallery.TagQuery{Mode: mode}
		q.First.Type, _ = f.GetString("type1")
		q.First.Value, _ = f.GetString("value1")
		q.Second.Type, _ = f.GetString("type2")
		q.Second.Value, _ = f.GetString("value2")
		photos, err := s.SearchByTags(q)
		return q.String(), photos, err
	case searchByCaption:
		text, _ := f.GetString("text")
		photos, err := s.SearchByCaption(text)
		return fmt.Sprintf("caption ~ %q", text), photos, err
	default:
		return "", nil, fmt.Errorf("unknown search kind %q, want date, tags or caption", by)
	}
}

func searchRunE(by string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		saveAs, _ := cmd.Flags().GetString("save-as")
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			query, photos, err := runSearch(cmd, s, by)
			if errors.Is(err, gallery.ErrNoMatches) {
				fmt.Fprintf(os.Stderr, "No photos match %s\n", query)
				return nil
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			fmt.Fprintf(os.Stderr, "%d photos match %s\n", len(photos), query)
			if saveAs != "" {
				a, err := s.CreateAlbumFromResults(cmd.Context(), saveAs, photos)
				if err != nil {
					return fmt.Errorf("failed to save results: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Saved results as album %s\n", a.Name())
			}
			return renderPhotos(cmd.OutOrStdout(), gallery.PhotoRecords(photos))
		})
	}
}

var searchDateCmd = &cobra.Command{
	Use:   "date",
	Short: "Find photos taken within a date range",
	Example: `  shoebox search date --start 2024-05-01 --end 2024-05-31
  shoebox search date --start 2024-05-01T08:00:00+02:00 --end 2024-05-01T12:00:00+02:00`,
	Args: cobra.NoArgs,
	RunE: searchRunE(searchByDate),
}

var searchTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Find photos by one or two tags",
	Long: `Find photos by tag. Modes:

  single  one tag pair; matches photos carrying it
  and     two tag pairs; matches photos carrying both
  or      two tag pairs; matches photos carrying either`,
	Example: `  shoebox search tags --type1 person --value1 Bob
  shoebox search tags --mode and --type1 person --value1 Bob --type2 location --value2 Oslo`,
	Args: cobra.NoArgs,
	RunE: searchRunE(searchByTags),
}

var searchCaptionCmd = &cobra.Command{
	Use:     "caption",
	Short:   "Find photos whose caption contains some text",
	Example: `  shoebox search caption --text birthday`,
	Args:    cobra.NoArgs,
	RunE:    searchRunE(searchByCaption),
}

func initSearchCmd() {
	for _, c := range []*cobra.Command{searchDateCmd, searchTagsCmd, searchCaptionCmd} {
		addSearchFlags(c)
		c.Flags().String("save-as", "", "Also save the results as a new album with this name")
		searchCmd.AddCommand(c)
	}
	searchDateCmd.MarkFlagRequired("start")
	searchDateCmd.MarkFlagRequired("end")
	searchCaptionCmd.MarkFlagRequired("text")
}
