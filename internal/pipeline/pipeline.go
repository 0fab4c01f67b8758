// Package pipeline converts song directories into a karaoke script, the
// audio it plays against and an info file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mgpai22/kara/internal/ass"
	"github.com/mgpai22/kara/internal/fsutil"
	"github.com/mgpai22/kara/internal/library"
	"github.com/mgpai22/kara/internal/logging"
	"github.com/mgpai22/kara/internal/media"
	"github.com/mgpai22/kara/internal/source"
	"github.com/mgpai22/kara/internal/timing"
)

type Options struct {
	Generate ass.GenerateOptions
	// archive entries decoded in parallel
	Workers int
	Prober  media.Prober
	Logger  *logging.Logger
}

// Result describes one converted song.
type Result struct {
	Dir        string
	Format     source.Format
	Song       *source.Song
	Script     *ass.Script
	LyricsPath string
	InfoPath   string
}

// Convert reads the song in dir and writes lyrics.ass, kara.json and the
// song's audio into outDir. outDir defaults to dir.
func Convert(ctx context.Context, dir, outDir string, opts Options) (*Result, error) {
	if outDir == "" {
		outDir = dir
	}
	logger := opts.Logger.Named("pipeline")

	format, names, err := source.DetectDir(dir)
	if err != nil {
		return nil, err
	}

	logger.Infow("Converting song", "dir", dir, "format", format.String())

	var (
		song *source.Song
		// audio copied into outDir once the lyrics are written
		audio []string
	)
	switch format {
	case source.FormatKFN:
		song, err = readKFN(ctx, dir, outDir, names, opts)
	case source.FormatUltraStar:
		song, audio, err = readUltraStar(dir, names, opts)
	case source.FormatLRC:
		song, audio, err = readLRC(dir, names, opts)
	case source.FormatCDG:
		err = fmt.Errorf("%w: cdg graphics carry no lyric timing", source.ErrUnsupportedFormat)
	default:
		err = fmt.Errorf("%w: %s", source.ErrUnsupportedFormat, dir)
	}
	if err != nil {
		return nil, err
	}

	genOpts := applyHints(opts.Generate, song.Hints)
	if genOpts.Title == "" {
		genOpts.Title = song.Title
	}

	script, err := ass.Generate(song.Events, genOpts)
	if err != nil {
		return nil, err
	}

	lyricsPath := filepath.Join(outDir, library.LyricsFileName)
	if err := script.WriteFile(lyricsPath); err != nil {
		return nil, fmt.Errorf("failed to write lyrics: %w", err)
	}

	for _, name := range audio {
		if err := copyTrack(dir, outDir, name); err != nil {
			return nil, err
		}
	}

	infoPath, err := library.NewInfo(song, format).Write(outDir)
	if err != nil {
		return nil, err
	}

	logger.Infow("Song converted",
		"dir", dir,
		"title", song.Title,
		"events", len(script.Events),
		"lyrics", lyricsPath,
	)

	return &Result{
		Dir:        dir,
		Format:     format,
		Song:       song,
		Script:     script,
		LyricsPath: lyricsPath,
		InfoPath:   infoPath,
	}, nil
}

// ProcessAll converts every song directory directly under root. A failing
// song is logged and skipped; the returned error joins all failures.
// Converted songs land in outRoot/<name>, or in place when outRoot is empty.
func ProcessAll(ctx context.Context, root, outRoot string, opts Options) ([]*Result, error) {
	logger := opts.Logger.Named("pipeline")

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	var (
		results []*Result
		errs    []error
	)

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		dir := filepath.Join(root, e.Name())
		out := ""
		if outRoot != "" {
			out = filepath.Join(outRoot, e.Name())
		}

		res, err := Convert(ctx, dir, out, opts)
		if err != nil {
			logger.Errorw("Failed to convert song", "dir", dir, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func readKFN(ctx context.Context, dir, outDir string, names []string, opts Options) (*source.Song, error) {
	name, _ := fsutil.FindByExt(names, ".kfn")
	return source.ReadKFN(ctx, filepath.Join(dir, name), outDir, source.KFNOptions{
		Workers: opts.Workers,
		Prober:  opts.Prober,
		Logger:  opts.Logger,
	})
}

func readUltraStar(dir string, names []string, opts Options) (*source.Song, []string, error) {
	name, _ := fsutil.FindByExt(names, ".txt")
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}

	song, us, err := source.ReadUltraStar(data, opts.Logger.Named("ultrastar"))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}

	// the #MP3 header is often stale, fall back to whatever audio is there
	if us.Audio == "" || !slices.Contains(names, us.Audio) {
		audio, ok := source.FirstAudio(names, ".mp3")
		if !ok {
			return nil, nil, fmt.Errorf("%w: no audio next to %s", source.ErrUnsupportedFormat, name)
		}
		us.Audio = audio
		song.Tracks = append([]timing.Track{{FileName: audio, Name: "main"}}, withoutMain(song.Tracks)...)
	}

	audio := make([]string, 0, len(song.Tracks))
	for _, t := range song.Tracks {
		audio = append(audio, t.FileName)
	}

	if d := probe(opts, filepath.Join(dir, us.Audio)); d > 0 {
		song.Duration = d
	}
	return song, audio, nil
}

func readLRC(dir string, names []string, opts Options) (*source.Song, []string, error) {
	name, _ := fsutil.FindByExt(names, ".lrc")
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}

	song, err := source.ReadLRC(data, opts.Logger.Named("lrc"))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}

	audio, ok := source.FirstAudio(names, ".mp3", ".ogg", ".flac")
	if !ok {
		return nil, nil, fmt.Errorf("%w: no audio next to %s", source.ErrUnsupportedFormat, name)
	}
	song.Tracks = []timing.Track{{FileName: audio, Name: "main"}}
	if song.Title == "" {
		song.Title = audio
	}

	song.Duration = probe(opts, filepath.Join(dir, audio))
	if song.Duration == 0 {
		last := song.Events[len(song.Events)-1]
		song.Duration = (last.Start() + last.Duration()).Truncate(time.Second)
	}
	return song, []string{audio}, nil
}

func applyHints(opts ass.GenerateOptions, hints source.Hints) ass.GenerateOptions {
	if hints.Padding != nil {
		opts.Padding = *hints.Padding
	}
	if hints.HighlightColor != "" {
		opts.HighlightColor = hints.HighlightColor
	}
	return opts
}

func copyTrack(dir, outDir, name string) error {
	src := filepath.Join(dir, name)
	dst := filepath.Join(outDir, name)
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

// probe returns 0 when the duration cannot be read.
func probe(opts Options, path string) time.Duration {
	if opts.Prober == nil {
		return 0
	}
	d, err := opts.Prober.Duration(path)
	if err != nil {
		opts.Logger.Warnw("Could not probe track duration", "path", path, "error", err)
		return 0
	}
	return d
}

func withoutMain(tracks []timing.Track) []timing.Track {
	var out []timing.Track
	for _, t := range tracks {
		if t.Name != "main" {
			out = append(out, t)
		}
	}
	return out
}
