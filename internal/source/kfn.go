package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mgpai22/kara/internal/kfn"
	"github.com/mgpai22/kara/internal/logging"
	"github.com/mgpai22/kara/internal/media"
)

const songIniName = "Song.ini"

// KFNOptions configures ReadKFN.
type KFNOptions struct {
	// entries decoded in parallel, <= 0 uses the archive default
	Workers int
	// used when the header carries no song length
	Prober media.Prober
	Logger *logging.Logger
}

// ReadKFN decodes the archive at path into outDir and reads its Song.ini.
// The duration comes from the header when set, otherwise from probing the
// first extracted track.
func ReadKFN(ctx context.Context, path, outDir string, opts KFNOptions) (*Song, error) {
	logger := opts.Logger.Named("kfn")

	archive, err := kfn.Open(path, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = archive.Close()
	}()

	entry, ok := archive.Find(songIniName)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", ErrUnresolvedTimingSource, filepath.Base(path), songIniName)
	}

	data, err := archive.ReadEntry(entry)
	if err != nil {
		return nil, err
	}

	song, err := ReadSongIni(data, logger)
	if err != nil {
		return nil, err
	}

	if _, err := archive.ExtractAll(ctx, outDir, opts.Workers); err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}

	if song.Title == "" {
		song.Title = archive.Header.Title()
	}
	if song.Artist == "" {
		song.Artist = archive.Header.Artist()
	}
	if song.Year == "" {
		song.Year = archive.Header.Year()
	}

	song.Duration = archive.Header.SongLength()
	if song.Duration == 0 && opts.Prober != nil && len(song.Tracks) > 0 {
		trackPath := filepath.Join(outDir, song.Tracks[0].FileName)
		d, err := opts.Prober.Duration(trackPath)
		if err != nil {
			logger.Warnw("Could not probe track duration",
				"track", song.Tracks[0].FileName,
				"error", err,
			)
		} else {
			song.Duration = d
		}
	}

	return song, nil
}
