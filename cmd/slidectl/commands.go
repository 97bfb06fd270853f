package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slidedeck/internal/models"
	"slidedeck/internal/services"
)

type keyLister interface {
	Keys() ([]string, error)
}

func (c *cli) showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the slides of the presentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(store.Snapshot())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tTYPE\tSUMMARY")
			for i, slide := range store.Slides() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, slide.SlideID(), slide.Kind(), summarize(slide))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full snapshot as JSON")
	return cmd
}

func summarize(slide models.Slide) string {
	switch s := slide.(type) {
	case *models.DrawingSlide:
		return fmt.Sprintf("%d elements", len(models.LiveElements(s.Elements)))
	case *models.QuizSlide:
		return s.Form.Prompt
	case *models.FeedbackSlide:
		return s.Form.Prompt
	default:
		return ""
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the slide sequence as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			data, err := models.EncodeSlides(store.Slides())
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, data, "", "  "); err != nil {
				return err
			}
			pretty.WriteByte('\n')

			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(pretty.Bytes())
				return err
			}
			return os.WriteFile(args[0], pretty.Bytes(), 0o644)
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the slide sequence with slides read from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read slides: %w", err)
			}

			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			slides, err := models.DecodeSlides(data, c.logger)
			if err != nil {
				return err
			}
			if len(slides) == 0 {
				return errors.New("no valid slides to import")
			}
			if err := store.SetSlides(slides, false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d slides\n", len(slides))
			return nil
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "add <drawing|quiz|feedback>",
		Short:     "Append an empty slide",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.SlideKindDrawing), string(models.SlideKindQuiz), string(models.SlideKindFeedback)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := models.SlideKind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown slide type %q", args[0])
			}

			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			slide, err := store.AddSlide(kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), slide.SlideID())
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			if _, ok := store.Slide(args[0]); !ok {
				return fmt.Errorf("slide %q not found", args[0])
			}
			deleted, err := store.DeleteSlide(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return errors.New("cannot delete the last slide")
			}
			return nil
		},
	}
}

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a slide to another position and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid from position: %w", err)
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid to position: %w", err)
			}

			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()

			if !store.MoveSlide(from, to) {
				return fmt.Errorf("positions must be between 0 and %d", len(store.Slides())-1)
			}
			return store.SaveSlides()
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a new presentation from the default slides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeSlot, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeSlot()
			return store.InitializeNewPresentationState()
		},
	}
}

func (c *cli) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the slot keys held by the storage backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scfg, err := c.storage()
			if err != nil {
				return err
			}
			slot, closeSlot, err := services.OpenSlot(scfg, c.logger)
			if err != nil {
				return err
			}
			defer closeSlot()

			lister, ok := slot.(keyLister)
			if !ok {
				return fmt.Errorf("storage driver %q cannot list keys", scfg.Driver)
			}
			keys, err := lister.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
