package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var tagTypesCmd = &cobra.Command{
	Use:   "tagtypes",
	Short: "Manage the user's tag types",
	Long: `Every tag has a type. A type's multiplicity caps how many tags of that type one
photo may carry. New users start with location (1) and person (unbounded).`,
}

var addTagTypeCmd = &cobra.Command{
	Use:   "add TYPE [MULTIPLICITY]",
	Short: "Register a tag type, or change its multiplicity",
	Long: `Registers TYPE for the user. MULTIPLICITY is a positive number or 'unbounded',
the default.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		multiplicity := gallery.Unbounded
		if len(args) == 2 && !strings.EqualFold(args[1], "unbounded") {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid multiplicity %q: %w", args[1], err)
			}
			multiplicity = n
		}
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			if err := s.AddTagType(cmd.Context(), args[0], multiplicity); err != nil {
				return fmt.Errorf("failed to add tag type: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Registered tag type %s\n", args[0])
			return nil
		})
	},
}

var listTagTypesCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's tag types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), "", func(s *service.Session) error {
			return renderTagTypes(cmd.OutOrStdout(), s.User().TagTypes())
		})
	},
}

func initTagTypesCmd() {
	tagTypesCmd.AddCommand(addTagTypeCmd, listTagTypesCmd)
}
