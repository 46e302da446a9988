package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/config"
	"github.com/dgallion1/snapedit/internal/editor"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Course   config.Course
	SessKey  string
	LogLevel string
	Yes      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	if cfg, err := config.Load(); err == nil {
		opts.Course = cfg.Course
		opts.SessKey = cfg.SessKey
		opts.LogLevel = cfg.LogLevel
	}

	cmd := &cobra.Command{
		Use:           "snapedit",
		Short:         "Edit the sections and assets of a course page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.Course.AjaxURL, "base-url", opts.Course.AjaxURL, "editing backend URL")
	f.StringVar(&opts.SessKey, "sesskey", opts.SessKey, "session key")
	f.IntVar(&opts.Course.ID, "course", opts.Course.ID, "course id")
	f.IntVar(&opts.Course.ContextID, "context", opts.Course.ContextID, "course context id")
	f.StringVar((*string)(&opts.Course.Format), "format", string(opts.Course.Format), "course format (weeks, topics, other)")
	f.StringVar((*string)(&opts.Course.TOCType), "toc", string(opts.Course.TOCType), "table of contents type (top, side, none)")
	f.BoolVar(&opts.Course.PartialRender, "partial", opts.Course.PartialRender, "load sections on demand")
	f.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (debug, info, warn, error)")
	f.BoolVarP(&opts.Yes, "yes", "y", false, "confirm destructive actions")

	cmd.AddCommand(newTOCCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newMoveSectionCmd(opts))
	cmd.AddCommand(newMoveAssetsCmd(opts))
	cmd.AddCommand(newDeleteSectionCmd(opts))
	cmd.AddCommand(newSectionActionCmd(opts, "visibility", "Show a hidden section or hide a visible one", backend.SectionVisibility))
	cmd.AddCommand(newSectionActionCmd(opts, "highlight", "Toggle the highlight of a section", backend.SectionHighlight))
	cmd.AddCommand(newAssetCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// open connects to the backend and loads the course page.
func (o *rootOptions) open(cmd *cobra.Command) (*editor.Editor, error) {
	if strings.TrimSpace(o.SessKey) == "" {
		return nil, errors.New("--sesskey is required")
	}
	if err := o.Course.Validate(); err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: config.ParseLevel(o.LogLevel)}))
	client := backend.NewClient(o.Course.AjaxURL, o.SessKey, o.Course.ID, o.Course.ContextID)
	return editor.Open(cmd.Context(), o.Course, client,
		editor.WithLogger(log),
		editor.WithConfirmer(o.confirmer(cmd.InOrStdin(), cmd.ErrOrStderr())),
	)
}

// confirmer approves everything with --yes and otherwise asks on stdin.
func (o *rootOptions) confirmer(in io.Reader, out io.Writer) editor.Confirmer {
	if o.Yes {
		return editor.ConfirmFunc(func(context.Context, string, string) bool { return true })
	}
	scanner := bufio.NewScanner(in)
	return editor.ConfirmFunc(func(_ context.Context, title, message string) bool {
		fmt.Fprintf(out, "%s: %s [y/N] ", title, message)
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	})
}
