package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var albumFlag string

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Work with the photos of one album",
	Long: `Add, remove, caption, tag, copy, move and sort photos. Every command acts on the
album given with --album. Caption and tag changes reach the same photo in the user's
other albums when the command finishes.`,
}

var listPhotosCmd = &cobra.Command{
	Use:   "list",
	Short: "List the photos of the album",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			return renderPhotos(cmd.OutOrStdout(), gallery.PhotoRecords(s.Current().Photos()))
		})
	},
}

var addPhotoCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Add image files to the album",
	Long: `Adds each image file (bmp, gif, jpg, jpeg, png) to the album. A photo is dated by
the file's modification time. Files that cannot be added are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			var errs error
			for _, path := range args {
				p, err := s.AddPhoto(cmd.Context(), path)
				if errors.Is(err, gallery.ErrPersistence) {
					return err
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", path, err)
					errs = multierr.Append(errs, err)
					continue
				}
				fmt.Fprintf(os.Stderr, "Added %s (taken %s)\n", p.Path, when(p.Taken))
			}
			return errs
		})
	},
}

var removePhotoCmd = &cobra.Command{
	Use:   "remove PATH",
	Short: "Remove a photo from the album",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if err := s.RemovePhoto(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to remove photo: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Removed %s\n", args[0])
			return nil
		})
	},
}

var captionPhotoCmd = &cobra.Command{
	Use:   "caption PATH CAPTION",
	Short: "Set a photo's caption; an empty caption clears it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if err := s.SetCaption(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set caption: %w", err)
			}
			return nil
		})
	},
}

var tagPhotoCmd = &cobra.Command{
	Use:   "tag PATH TYPE VALUE",
	Short: "Tag a photo",
	Long: `Adds the tag TYPE: VALUE to a photo. TYPE must be one of the user's tag types and
the photo must have room for another value of it (see 'shoebox tagtypes list').`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			err := s.AddTag(cmd.Context(), args[0], args[1], args[2])
			switch {
			case errors.Is(err, gallery.ErrDuplicateTag):
				return fmt.Errorf("%s already has tag %s: %s", args[0], args[1], args[2])
			case errors.Is(err, gallery.ErrTagCapacityExceeded):
				return fmt.Errorf("%s cannot take another %s tag", args[0], args[1])
			case err != nil:
				return fmt.Errorf("failed to tag photo: %w", err)
			}
			return nil
		})
	},
}

var untagPhotoCmd = &cobra.Command{
	Use:   "untag PATH TYPE VALUE",
	Short: "Remove a tag from a photo",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if err := s.DeleteTag(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("failed to remove tag: %w", err)
			}
			return nil
		})
	},
}

var copyPhotoCmd = &cobra.Command{
	Use:   "copy PATH ALBUM",
	Short: "Copy a photo into another album",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if _, err := s.CopyPhoto(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to copy photo: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Copied %s to %s\n", args[0], args[1])
			return nil
		})
	},
}

var movePhotoCmd = &cobra.Command{
	Use:   "move PATH ALBUM",
	Short: "Move a photo into another album",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if err := s.MovePhoto(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to move photo: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Moved %s to %s\n", args[0], args[1])
			return nil
		})
	},
}

var sortPhotosCmd = &cobra.Command{
	Use:       "sort date|tags",
	Short:     "Reorder the album by date taken or by tags",
	ValidArgs: []string{service.SortByDate, service.SortByTags},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), albumFlag, func(s *service.Session) error {
			if err := s.SortAlbum(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to sort album: %w", err)
			}
			return renderPhotos(cmd.OutOrStdout(), gallery.PhotoRecords(s.Current().Photos()))
		})
	},
}

func initPhotosCmd() {
	photosCmd.PersistentFlags().StringVarP(&albumFlag, "album", "a", "", "Album to work in")
	photosCmd.MarkPersistentFlagRequired("album")

	photosCmd.AddCommand(listPhotosCmd, addPhotoCmd, removePhotoCmd, captionPhotoCmd, tagPhotoCmd,
		untagPhotoCmd, copyPhotoCmd, movePhotoCmd, sortPhotosCmd)
}
