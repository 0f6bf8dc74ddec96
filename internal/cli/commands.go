package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"localboard/internal/export"
	boardnet "localboard/internal/net"
	"localboard/internal/state"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		formats []string
		outDir  string
		name    string
		fit     bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved board as PNG, JPEG, PDF or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]export.Format, 0, len(formats))
			for _, f := range formats {
				p, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, p)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			store, st, err := c.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			board := store.Snapshot()
			canvas := c.cfg.Canvas
			opts := export.Options{
				Width:       canvas.Width,
				Height:      canvas.Height,
				Background:  canvas.Background,
				JPEGQuality: canvas.JPEGQuality,
			}
			if fit {
				board.Camera = export.FitToContent(board, canvas.Width, canvas.Height, 24)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			for _, f := range parsed {
				path := filepath.Join(outDir, name+f.Ext())
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					return c.writeExport(path, f, board, opts)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, f := range parsed {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(outDir, name+f.Ext()))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"png"}, "Formats to write: png, jpeg, pdf, json")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&name, "name", "board", "Output file name without extension")
	cmd.Flags().BoolVar(&fit, "fit", false, "Frame all elements instead of using the saved camera")
	return cmd
}

func (c *cli) writeExport(path string, f export.Format, board state.BoardState, opts export.Options) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Write(out, f, board, opts); err != nil {
		out.Close()
		return fmt.Errorf("failed to export %s: %w", f, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	c.logger.Info("board exported", zap.String("format", string(f)), zap.String("path", path))
	return nil
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace the saved board with a JSON board file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			board, err := export.ReadJSON(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			store, st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := store.Restore(board); err != nil {
				return err
			}
			if err := store.SaveToLocal(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d elements into slot %q\n", len(board.Elements), c.cfg.Storage.Slot)
			return nil
		},
	}
}

func (c *cli) addImageCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "add-image <file>",
		Short: "Add an image to the saved board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			store, st, err := c.loadedStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			store.PushHistory()
			img, err := store.AddImageFromUpload(ctx, filepath.Base(args[0]), f)
			if err != nil {
				store.DiscardCheckpoint()
				return err
			}
			if err := store.SaveToLocal(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %.0fx%.0f at (%.0f, %.0f)\n", img.ID, img.Width, img.Height, img.X, img.Y)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up reading the image after this long")
	return cmd
}

func (c *cli) shareCmd() *cobra.Command {
	var (
		advertise bool
		qrPNG     string
		qrSize    int
	)
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print the board's share link, with a QR code",
		Long: "Print the board's share link, with a QR code. The room id is created on\n" +
			"first use and saved next to the board, so later runs print the same link.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := store.LoadRoom(cmd.Context()); err != nil {
				return err
			}
			link := store.MakeShareLink()
			if err := store.SaveRoom(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, link)

			qr, err := qrcode.New(link, qrcode.Medium)
			if err != nil {
				return fmt.Errorf("failed to build QR code: %w", err)
			}
			fmt.Fprint(out, qr.ToSmallString(false))
			if qrPNG != "" {
				if err := qr.WriteFile(qrSize, qrPNG); err != nil {
					return fmt.Errorf("failed to write QR code: %w", err)
				}
			}

			if !advertise {
				return nil
			}
			server, err := boardnet.Advertise(link, c.cfg.Share.Port, c.logger)
			if err != nil {
				return err
			}
			defer server.Shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintln(out, "advertising on the local network, press Ctrl+C to stop")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the link over mDNS until interrupted")
	cmd.Flags().StringVar(&qrPNG, "qr-png", "", "Also write the QR code to this PNG file")
	cmd.Flags().IntVar(&qrSize, "qr-size", 256, "QR PNG size in pixels")
	return cmd
}

func (c *cli) discoverCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List share links announced on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			n := 0
			err := boardnet.Browse(cmd.Context(), timeout, func(a boardnet.Announcement) {
				n++
				fmt.Fprintf(out, "%s\t%s\t%s\n", a.Instance, a.Addr, a.Link)
			})
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}
			c.logger.Debug("discovery finished", zap.Int("found", n))
			if n == 0 {
				fmt.Fprintln(out, "no boards found")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "How long to listen for announcements")
	return cmd
}
