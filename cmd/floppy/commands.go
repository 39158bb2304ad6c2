package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/llehouerou/go-floppy"
	"github.com/llehouerou/go-floppy/internal/config"
	"github.com/llehouerou/go-floppy/internal/histogram"
)

var errNoFormat = errors.New("no format: use --format or a profile")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "profile",
			Usage: "YAML profile with the format and its options",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "Format name, overrides the profile",
		},
		cli.StringFlag{
			Name:  "log.level",
			Usage: "Log level (panic|fatal|error|warn|info|debug), overrides the profile",
		},
		cli.StringFlag{
			Name:  "log.file",
			Usage: "Rotated log file, overrides the profile",
		},
		cli.IntFlag{
			Name:  "verbosity",
			Usage: "Per-track output (0=quiet,1=summary,2=full), overrides the profile",
			Value: -1,
		},
	}
}

func trackFlags(inUsage, outUsage string) []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "track",
			Usage: "Track index, cylinder*2+head",
		},
		cli.StringFlag{
			Name:  "in",
			Usage: inUsage,
		},
		cli.StringFlag{
			Name:  "out",
			Usage: outUsage,
		},
	}
}

// env is the state shared by the commands of one run.
type env struct {
	profile *config.Profile
	log     *logrus.Logger
	closer  io.Closer
}

func (e *env) setup(c *cli.Context) error {
	if path := c.GlobalString("profile"); path != "" {
		p, err := config.Load(path)
		if err != nil {
			return err
		}
		e.profile = p
	} else {
		e.profile = config.New("")
	}
	if name := c.GlobalString("format"); name != "" {
		e.profile.Format = name
	}
	if level := c.GlobalString("log.level"); level != "" {
		e.profile.Logs.Level = level
	}
	if file := c.GlobalString("log.file"); file != "" {
		e.profile.Logs.File = file
	}
	if v := c.GlobalInt("verbosity"); v >= 0 {
		e.profile.Verbosity = v
	}

	logger, closer, err := newLogger(e.profile.Logs)
	if err != nil {
		return err
	}
	e.log, e.closer = logger, closer
	return nil
}

func (e *env) close(c *cli.Context) error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// codec creates the profile's format, applies its options and wraps it
// in a codec.
func (e *env) codec(opts ...floppy.Option) (*floppy.Codec, error) {
	if e.profile.Format == "" {
		return nil, errNoFormat
	}
	f, err := floppy.New(e.profile.Format)
	if err != nil {
		return nil, err
	}
	if err := e.profile.Apply(f); err != nil {
		return nil, err
	}
	opts = append([]floppy.Option{
		floppy.WithLogger(e.log),
		floppy.WithVerbosity(e.profile.Verbosity),
	}, opts...)
	return floppy.NewCodec(f, opts...)
}

func formatsCommand() cli.Command {
	return cli.Command{
		Name:  "formats",
		Usage: "List the available formats",
		Action: func(c *cli.Context) error {
			w := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "LEVEL\tNAME\tSECTORS\tSIZE")
			for _, d := range floppy.Formats() {
				f := d.New()
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", d.Level, d.Name, f.Sectors(0), f.SectorSize(0, 0))
			}
			return w.Flush()
		},
	}
}

func decodeCommand(e *env) cli.Command {
	return cli.Command{
		Name:  "decode",
		Usage: "Decode the raw counters of one track into sector data",
		Flags: trackFlags("Raw counter file", "Sector data file, sectors in order"),
		Action: func(c *cli.Context) error {
			codec, err := e.codec()
			if err != nil {
				return err
			}
			counters, err := os.ReadFile(c.String("in"))
			if err != nil {
				return err
			}
			track := c.Int("track")
			f := codec.Format()
			tr := floppy.NewTrack(f.Sectors(track))
			if _, err := codec.DecodeTrack(counters, track, tr); err != nil {
				return err
			}

			var data []byte
			for n := 0; n < f.Sectors(track); n++ {
				s, ok := tr.Sector(n)
				if !ok {
					e.log.WithField("sector", n).Error("sector missing")
					data = append(data, make([]byte, f.SectorSize(track, n))...)
					continue
				}
				if !s.Err.Good() {
					e.log.WithFields(logrus.Fields{
						"sector": n,
						"errors": s.Err.Flags.String(),
					}).Error("sector unreadable")
				}
				data = append(data, s.Data...)
			}
			fmt.Fprintf(c.App.Writer, "track %d: %d of %d sectors good\n", track, tr.Good(), tr.Len())
			return os.WriteFile(c.String("out"), data, 0o644)
		},
	}
}

func encodeCommand(e *env) cli.Command {
	return cli.Command{
		Name:  "encode",
		Usage: "Encode sector data into the raw counters of one track",
		Flags: trackFlags("Sector data file, sectors in order", "Raw counter file"),
		Action: func(c *cli.Context) error {
			codec, err := e.codec()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(c.String("in"))
			if err != nil {
				return err
			}
			track := c.Int("track")
			f := codec.Format()

			var sectors []floppy.Sector
			for n := 0; n < f.Sectors(track); n++ {
				size := min(f.SectorSize(track, n), len(data))
				sectors = append(sectors, floppy.Sector{Number: n, Data: data[:size]})
				data = data[size:]
			}
			if len(data) > 0 {
				e.log.WithField("bytes", len(data)).Warn("input longer than track, tail ignored")
			}
			counters, report, err := codec.EncodeTrack(track, sectors)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "track %d: %d counters\n", track, report.Write.Symbols)
			return os.WriteFile(c.String("out"), counters, 0o644)
		},
	}
}

func histogramCommand(e *env) cli.Command {
	flags := trackFlags("Raw counter file", "PDF report file")
	flags = append(flags, cli.StringFlag{
		Name:  "title",
		Usage: "PDF report title",
	})
	return cli.Command{
		Name:  "histogram",
		Usage: "Print the counter histogram of one track, optionally as a PDF report",
		Flags: flags,
		Action: func(c *cli.Context) error {
			verbosity := e.profile.Verbosity
			if verbosity == histogram.VerbosityQuiet {
				verbosity = histogram.VerbosityFull
			}
			sinks := histogram.Multi{&histogram.Printer{W: c.App.Writer, Verbosity: verbosity}}
			var report *histogram.Report
			if c.String("out") != "" {
				report = &histogram.Report{Title: c.String("title"), Format: e.profile.Format}
				sinks = append(sinks, report)
			}

			codec, err := e.codec(floppy.WithStatistics(sinks))
			if err != nil {
				return err
			}
			counters, err := os.ReadFile(c.String("in"))
			if err != nil {
				return err
			}
			if _, err := codec.DecodeTrack(counters, c.Int("track"), nil); err != nil {
				return err
			}
			if report != nil {
				return report.Save(c.String("out"))
			}
			return nil
		},
	}
}
