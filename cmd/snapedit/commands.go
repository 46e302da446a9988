package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/editor"
	"github.com/dgallion1/snapedit/internal/page"
	"github.com/spf13/cobra"
)

func newTOCCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toc",
		Short: "List the sections of the course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			printTOC(cmd.OutOrStdout(), ed.Page())
			return nil
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section>",
		Short: "Go to a section and list its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("section", args[0])
			if err != nil {
				return err
			}
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := ed.GoToSection(cmd.Context(), n, ""); err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), ed.Page(), n)
			return nil
		},
	}
}

func newMoveSectionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move-section <section> <before>",
		Short: "Move a section so it sits before another",
		Long:  "Move a section so it sits before section <before>. Use the section count as <before> to move it to the end.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseInt("section", args[0])
			if err != nil {
				return err
			}
			before, err := parseInt("before", args[1])
			if err != nil {
				return err
			}
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if opts.Course.PartialRender {
				if err := ed.Loader().Request(ctx, from, ""); err != nil {
					return err
				}
			}
			if err := ed.StartSectionMove(from); err != nil {
				return err
			}
			if err := ed.Drop(ctx, editor.Target{Section: before}); err != nil {
				return err
			}
			printTOC(cmd.OutOrStdout(), ed.Page())
			return nil
		},
	}
}

func newMoveAssetsCmd(opts *rootOptions) *cobra.Command {
	var to, before int
	cmd := &cobra.Command{
		Use:   "move-assets --to <section> [--before <asset>] <asset>...",
		Short: "Move assets into a section, in the order given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, len(args))
			for i, a := range args {
				id, err := parseInt("asset", a)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if opts.Course.PartialRender {
				if err := ed.GoToSection(ctx, to, ""); err != nil {
					return err
				}
			}
			for _, id := range ids {
				if err := ed.ToggleAssetMove(id, true); err != nil {
					return err
				}
			}
			if err := ed.Drop(ctx, editor.Target{Section: to, Before: before}); err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), ed.Page(), to)
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "target section")
	cmd.Flags().IntVar(&before, "before", 0, "asset to insert before (default: end of section)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newDeleteSectionCmd(opts *rootOptions) *cobra.Command {
	return newSectionActionCmd(opts, "delete-section", "Delete a section and all its assets", backend.SectionDelete)
}

func newSectionActionCmd(opts *rootOptions, use, short string, action backend.SectionAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <section>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("section", args[0])
			if err != nil {
				return err
			}
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if opts.Course.PartialRender {
				if err := ed.Loader().Request(ctx, n, ""); err != nil {
					return err
				}
			}
			if err := ed.SectionAction(ctx, action, n); err != nil {
				return err
			}
			printTOC(cmd.OutOrStdout(), ed.Page())
			return nil
		},
	}
}

func newAssetCmd(opts *rootOptions) *cobra.Command {
	var section int
	cmd := &cobra.Command{
		Use:   "asset <show|hide|duplicate|delete> <asset>",
		Short: "Run an action on an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := backend.ParseModuleAction(args[0])
			if err != nil {
				return err
			}
			id, err := parseInt("asset", args[1])
			if err != nil {
				return err
			}
			ed, err := opts.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if opts.Course.PartialRender {
				if err := ed.GoToSection(ctx, section, ""); err != nil {
					return err
				}
			}
			if err := ed.AssetAction(ctx, id, action); err != nil {
				return err
			}
			printSection(cmd.OutOrStdout(), ed.Page(), section)
			return nil
		},
	}
	cmd.Flags().IntVar(&section, "section", 0, "section holding the asset")
	return cmd
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return n, nil
}

func printTOC(w io.Writer, pg *page.Page) {
	pg.View(func(d *page.Doc) {
		for _, c := range d.Chapters() {
			var flags []string
			if d.Has(c.Number) {
				flags = append(flags, "loaded")
			}
			if c.Hidden {
				flags = append(flags, "hidden")
			}
			if s := d.Section(c.Number); s != nil && s.Highlighted {
				flags = append(flags, "highlighted")
			}
			line := fmt.Sprintf("%3d  %s", c.Number, c.Title)
			if len(flags) > 0 {
				line += "  [" + strings.Join(flags, ", ") + "]"
			}
			fmt.Fprintln(w, line)
		}
	})
}

func printSection(w io.Writer, pg *page.Page, n int) {
	pg.View(func(d *page.Doc) {
		s := d.Section(n)
		if s == nil {
			fmt.Fprintf(w, "section %d is not loaded\n", n)
			return
		}
		fmt.Fprintf(w, "%d  %s\n", s.Number, d.DisplayTitle(s))
		for _, a := range s.Assets {
			line := fmt.Sprintf("     %-6d %-8s %s", a.ID, a.Kind, a.Name)
			if a.Visibility == "hidden" {
				line += "  [hidden]"
			}
			fmt.Fprintln(w, line)
		}
	})
}
