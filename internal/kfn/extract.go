package kfn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mgpai22/kara/internal/fsutil"
)

// ReadEntry returns the plaintext of e, decrypting it when flagged.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	if !e.Encrypted() {
		return a.readAt(e.Offset, int64(e.Length))
	}

	if a.block == nil {
		return nil, a.formatError(e.Offset, fmt.Errorf("%s: %w", e.Name, ErrMissingKey))
	}

	ciphertext, err := a.readAt(e.Offset, int64(e.EncryptedLength))
	if err != nil {
		return nil, err
	}

	blockSize := a.block.BlockSize()
	if len(ciphertext)%blockSize != 0 {
		return nil, a.formatError(e.Offset, fmt.Errorf(
			"%w: %s: ciphertext length %d is not a multiple of %d",
			ErrInvalidContainer,
			e.Name,
			len(ciphertext),
			blockSize,
		))
	}

	// ECB: every block is decrypted independently
	decrypted := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += blockSize {
		a.block.Decrypt(decrypted[i:i+blockSize], ciphertext[i:i+blockSize])
	}

	plaintext := make([]byte, e.Length)
	copy(plaintext, decrypted)

	return plaintext, nil
}

func (a *Archive) readAt(offset, length int64) ([]byte, error) {
	if offset < 0 || offset+length > a.size {
		return nil, a.formatError(offset, fmt.Errorf(
			"%w: entry of %d bytes runs past end of archive (%d bytes)",
			ErrInvalidContainer,
			length,
			a.size,
		))
	}

	buf := make([]byte, length)
	n, err := a.r.ReadAt(buf, offset)
	if int64(n) < length {
		return nil, a.formatError(offset, fmt.Errorf("short read: %w", err))
	}

	return buf, nil
}

// decoded entry waiting to be written
type extracted struct {
	index int
	entry Entry
	data  []byte
}

// ExtractAll decodes every entry and writes it under dir, creating dir if
// needed. Nothing is written unless every entry decodes. Files are written
// to a temporary name and renamed into place. concurrency <= 0 defaults to 4.
func (a *Archive) ExtractAll(
	ctx context.Context,
	dir string,
	concurrency int,
) ([]string, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	for _, e := range a.Entries {
		if e.Encrypted() && a.block == nil {
			return nil, a.formatError(e.Offset, fmt.Errorf("%s: %w", e.Name, ErrMissingKey))
		}
	}

	var (
		mu       sync.Mutex
		results  []extracted
		firstErr error
		wg       sync.WaitGroup
	)

	sem := make(chan struct{}, concurrency)

	for i, entry := range a.Entries {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		mu.Lock()
		hasErr := firstErr != nil
		mu.Unlock()
		if hasErr {
			break
		}

		wg.Add(1)
		go func(index int, e Entry) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := a.ReadEntry(e)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}

			results = append(results, extracted{index: index, entry: e, data: data})
		}(i, entry)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(results))
	for _, r := range results {
		outPath := filepath.Join(dir, filepath.Base(r.entry.Name))
		if err := fsutil.WriteFileAtomic(outPath, r.data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", r.entry.Name, err)
		}

		a.logger.Debugw("Extracted entry",
			"name", r.entry.Name,
			"bytes", len(r.data),
			"encrypted", r.entry.Encrypted(),
		)
		paths = append(paths, outPath)
	}

	return paths, nil
}
