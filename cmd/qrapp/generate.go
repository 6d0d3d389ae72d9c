package main

import (
	"fmt"
	"os"
	"strings"

	"go-qr-webapp/internal/config"
	"go-qr-webapp/internal/services"
	"go-qr-webapp/internal/views"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	size    int
	fg      string
	bg      string
	caption string
	engine  string
	output  string
	format  string
	paper   string
}

func newGenerateCmd(c *cli) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate TEXT",
		Short: "Encode TEXT into a QR code image or printable PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, c, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.size, "size", 0, fmt.Sprintf("image size in pixels, %d-%d (default from config)", config.MinQRSize, config.MaxQRSize))
	flags.StringVar(&opts.fg, "fg", "", "foreground colour, #rgb or #rrggbb")
	flags.StringVar(&opts.bg, "bg", "", "background colour, #rgb or #rrggbb")
	flags.StringVar(&opts.caption, "caption", "", "text printed below the code")
	flags.StringVar(&opts.engine, "engine", "", "encoder: skip2 or boombuler")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default <filename>.<format>)")
	flags.StringVar(&opts.format, "format", "png", "png or pdf")
	flags.StringVar(&opts.paper, "paper", "A4", "PDF paper size")
	return cmd
}

func runGenerate(cmd *cobra.Command, c *cli, opts *generateOptions, text string) error {
	genCfg := c.cfg.Generator
	if opts.engine != "" {
		genCfg.Engine = strings.ToLower(opts.engine)
	}
	switch genCfg.Engine {
	case config.EngineSkip2, config.EngineBoombuler:
	default:
		return fmt.Errorf("unknown engine %q", opts.engine)
	}

	req := services.GenerationRequest{
		Text:       text,
		SizePx:     opts.size,
		Foreground: opts.fg,
		Background: opts.bg,
		Caption:    opts.caption,
	}
	if req.SizePx == 0 {
		req.SizePx = genCfg.DefaultSize
	}
	if req.Foreground == "" {
		req.Foreground = genCfg.Foreground
	}
	if req.Background == "" {
		req.Background = genCfg.Background
	}

	gen := views.NewGenerator(services.NewQRService(genCfg), services.NewPDFService(opts.paper), c.log)
	defer gen.Dispose()

	if _, err := gen.Generate(req); err != nil {
		return err
	}

	var (
		data []byte
		name string
		err  error
	)
	switch strings.ToLower(opts.format) {
	case "png":
		data, name, err = gen.PNG()
	case "pdf":
		data, name, err = gen.PDF()
	default:
		return fmt.Errorf("format must be png or pdf, got %q", opts.format)
	}
	if err != nil {
		return err
	}

	if opts.output != "" {
		name = opts.output
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}
