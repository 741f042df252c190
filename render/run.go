// Package render implements CLI actions producing reduced css and inspecting
// css indexes.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"relcss/config"
	"relcss/index"
	"relcss/relcss"
	"relcss/source"
	"relcss/state"
)

var cssExtensions = []string{".css"}

// RenderFlags returns flags accepted by the render command.
func RenderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "css", Usage: "css `PATH` (file, directory or zip archive), may be repeated"},
		&cli.StringSliceFlag{Name: "content", Usage: "content `PATH` (file, directory or zip archive) to look for used selectors, may be repeated"},
		&cli.StringSliceFlag{Name: "always", Usage: "always keep rules for `SELECTORS` (comma separated), may be repeated"},
		&cli.BoolFlag{Name: "keep-unused", Usage: "keep all rules, do not look at content"},
		&cli.BoolFlag{Name: "minify", Usage: "produce single line output"},
		&cli.StringFlag{Name: "indent", Usage: "prefix every produced line with `STRING`"},
		&cli.StringFlag{Name: "force-cp", Usage: "force `ENCODING` for all sources (see IANA.org for character set names)"},
	}
}

// InspectFlags returns flags accepted by the inspect command.
func InspectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "css", Usage: "css `PATH` (file, directory or zip archive), may be repeated"},
		&cli.StringSliceFlag{Name: "always", Usage: "treat `SELECTORS` (comma separated) as always kept, may be repeated"},
		&cli.StringFlag{Name: "force-cp", Usage: "force `ENCODING` for all sources (see IANA.org for character set names)"},
	}
}

// Run renders css relevant to content.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	cssPaths := cmd.StringSlice("css")
	if len(cssPaths) == 0 {
		return errors.New("no css source has been specified")
	}
	contentPaths := cmd.StringSlice("content")

	dst := cmd.Args().Get(0)
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	// command line overwrites configuration
	conf := &env.Cfg.Render
	conf.AlwaysInclude = append(conf.AlwaysInclude, cmd.StringSlice("always")...)
	if cmd.Bool("keep-unused") {
		conf.RemoveUnused = false
	}
	if cmd.Bool("minify") {
		conf.Minify = true
	}
	if cmd.IsSet("indent") {
		conf.LeadingWhitespace = cmd.String("indent")
	}
	if cp := cmd.String("force-cp"); len(cp) > 0 {
		conf.ForceCharset = cp
	}
	enc := forcedEncoding(conf, log)

	cssSources, err := source.Collect(ctx, cssPaths, source.CollectOptions{
		Extensions:    cssExtensions,
		DetectChanges: conf.DetectChanges,
		Encoding:      enc,
	}, log)
	if err != nil {
		return fmt.Errorf("unable to collect css sources: %w", err)
	}
	var contentSources []source.Source
	if conf.RemoveUnused {
		if contentSources, err = source.Collect(ctx, contentPaths, source.CollectOptions{
			Extensions:    conf.ContentExtensions,
			DetectChanges: conf.DetectChanges,
			Encoding:      enc,
		}, log); err != nil {
			return fmt.Errorf("unable to collect content sources: %w", err)
		}
	} else if len(contentPaths) > 0 {
		log.Info("All rules are kept, content is ignored", zap.Strings("content", contentPaths))
	}

	log.Info("Processing starting", zap.Int("css", len(cssSources)), zap.Int("content", len(contentSources)), zap.String("destination", destinationName(dst)))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	b := relcss.New(
		relcss.WithLogger(log),
		relcss.WithCache(env.Store),
		relcss.WithChangeDetection(conf.DetectChanges),
	).
		AddCSSSource(cssSources...).
		AddContentSource(contentSources...).
		AlwaysInclude(conf.AlwaysInclude...).
		RemoveUnused(conf.RemoveUnused).
		Minify(conf.Minify)

	storeInputs(env.Rpt, "css", cssSources, log)
	storeInputs(env.Rpt, "content", contentSources, log)

	out, err := b.Render(conf.LeadingWhitespace)
	if err != nil {
		return err
	}

	if env.Rpt != nil {
		env.Rpt.StoreData("index.txt", []byte(b.Index().String()))
		env.Rpt.StoreData("result.css", []byte(out))
	}
	return writeResult(dst, out)
}

// Inspect prints extracted css index.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	cssPaths := cmd.StringSlice("css")
	if len(cssPaths) == 0 {
		return errors.New("no css source has been specified")
	}
	conf := &env.Cfg.Render
	if cp := cmd.String("force-cp"); len(cp) > 0 {
		conf.ForceCharset = cp
	}

	sources, err := source.Collect(ctx, cssPaths, source.CollectOptions{
		Extensions:    cssExtensions,
		DetectChanges: conf.DetectChanges,
		Encoding:      forcedEncoding(conf, log),
	}, log)
	if err != nil {
		return fmt.Errorf("unable to collect css sources: %w", err)
	}

	var opts []index.Option
	if env.Store != nil {
		opts = append(opts, index.WithStore(env.Store))
	}
	x := index.New(log, opts...)
	for _, src := range sources {
		x.AddSource(src)
	}
	x.AlwaysInclude(append(conf.AlwaysInclude, cmd.StringSlice("always")...)...)
	if err := x.Load(); err != nil {
		return err
	}

	dump := x.String()
	if env.Rpt != nil {
		env.Rpt.StoreData("index.txt", []byte(dump))
	}
	return writeResult(cmd.Args().Get(0), dump)
}

// forcedEncoding resolves requested character set, unknown names are
// reported and ignored.
func forcedEncoding(conf *config.RenderConfig, log *zap.Logger) encoding.Encoding {
	enc, err := conf.Encoding()
	if err != nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", conf.ForceCharset), zap.Error(err))
		return nil
	}
	if enc != nil {
		n, _ := ianaindex.IANA.Name(enc)
		log.Debug("Forcefully decoding all sources", zap.String("charset", n))
	}
	return enc
}

// storeInputs puts sources into debug report as they are at the time of
// rendering.
func storeInputs(rpt *config.Report, kind string, sources []source.Source, log *zap.Logger) {
	if rpt == nil {
		return
	}
	for i, src := range sources {
		name := fmt.Sprintf("%s/%03d-%s", kind, i, config.CleanFileName(filepath.Base(src.Name())))
		if f, ok := src.(*source.File); ok {
			if err := rpt.Snapshot(name, f.Name()); err != nil {
				log.Warn("Unable to store source in debug report", zap.String("source", f.Name()), zap.Error(err))
			}
			continue
		}
		data, err := src.Content()
		if err != nil {
			log.Warn("Unable to store source in debug report", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		rpt.StoreData(name, data)
	}
}

func destinationName(dst string) string {
	if len(dst) == 0 {
		return "STDOUT"
	}
	return dst
}

func writeResult(dst, data string) error {
	var out io.Writer = os.Stdout
	if len(dst) > 0 {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("unable to create destination directory: %w", err)
		}
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := io.WriteString(out, data); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
