package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "Manage the user's albums",
	Long:  `Create, list, show, rename and delete albums. Album names are unique per user, ignoring case.`,
}

var createAlbumCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an empty album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			a, err := s.CreateAlbum(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to create album: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Created album %s\n", a.Name())
			return nil
		})
	},
}

var listAlbumsCmd = &cobra.Command{
	Use:   "list",
	Short: "List albums with their photo counts and date ranges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			albums := s.Albums()
			summaries := make([]gallery.Summary, len(albums))
			for i, a := range albums {
				summaries[i] = a.Summary()
			}
			return renderAlbums(cmd.OutOrStdout(), summaries)
		})
	},
}

var showAlbumCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show the photos of an album in album order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), args[0], func(s *service.Session) error {
			a := s.Current()
			sum := a.Summary()
			fmt.Fprintf(os.Stderr, "Album %s: %d photos, %s to %s\n", sum.Name, sum.Photos, when(sum.Earliest), when(sum.Latest))
			return renderPhotos(cmd.OutOrStdout(), gallery.PhotoRecords(a.Photos()))
		})
	},
}

var renameAlbumCmd = &cobra.Command{
	Use:   "rename NAME NEW_NAME",
	Short: "Rename an album",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			if err := s.RenameAlbum(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to rename album: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Renamed album %s to %s\n", args[0], args[1])
			return nil
		})
	},
}

var deleteAlbumCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete an album",
	Long:  `Delete an album. The same photos in other albums are not affected.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			if err := s.DeleteAlbum(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete album: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Deleted album %s\n", args[0])
			return nil
		})
	},
}

var albumFromSearchCmd = &cobra.Command{
	Use:   "from-search NAME",
	Short: "Create an album holding the results of a search",
	Long: `Runs a search across all of the user's albums and saves the matching photos as a
new album. Choose the search with --by and give its flags:

  shoebox albums from-search Oslo --by tags --type1 location --value1 Oslo
  shoebox albums from-search May --by date --start 2024-05-01 --end 2024-05-31
  shoebox albums from-search Birthdays --by caption --text birthday`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			_, photos, err := runSearch(cmd, s, by)
			if err != nil {
				return err
			}
			a, err := s.CreateAlbumFromResults(cmd.Context(), args[0], photos)
			if err != nil {
				return fmt.Errorf("failed to create album: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Created album %s with %d photos\n", a.Name(), a.Len())
			return nil
		})
	},
}

func initAlbumsCmd() {
	albumFromSearchCmd.Flags().String("by", searchByTags, "Search kind (date, tags, caption)")
	addSearchFlags(albumFromSearchCmd)

	albumsCmd.AddCommand(createAlbumCmd, listAlbumsCmd, showAlbumCmd, renameAlbumCmd, deleteAlbumCmd, albumFromSearchCmd)
}
