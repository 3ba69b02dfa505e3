package services

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// Ensure DecryptBatchProcessor implements the interface.
var _ driving.DecryptProcessor = (*DecryptBatchProcessor)(nil)

// DecryptBatchProcessor discovers dated source files, decrypts or copies
// each one into the dated target directory, and records a day-level
// outcome. Files are processed strictly sequentially: the decryption tool
// is a blocking subprocess and there is nothing to gain from fan-out.
type DecryptBatchProcessor struct {
	sourceDir string
	targetDir string
	keys      *KeyResolver
	decryptor driven.Decryptor
	logs      driven.DecryptLogStore
	progress  driven.ProgressPublisher
}

// NewDecryptBatchProcessor creates a batch processor. progress may be
// nil, in which case events are dropped.
func NewDecryptBatchProcessor(
	sourceDir, targetDir string,
	keys *KeyResolver,
	decryptor driven.Decryptor,
	logs driven.DecryptLogStore,
	progress driven.ProgressPublisher,
) *DecryptBatchProcessor {
	return &DecryptBatchProcessor{
		sourceDir: sourceDir,
		targetDir: targetDir,
		keys:      keys,
		decryptor: decryptor,
		logs:      logs,
		progress:  progress,
	}
}

// ProcessBatch runs the decrypt batch for one date. Per-file failures are
// collected and do not abort the batch; setup failures (missing source
// tree, unresolvable key) return an error after recording a failed
// DecryptLog. Exactly one DecryptLog row is written per invocation.
func (p *DecryptBatchProcessor) ProcessBatch(
	ctx context.Context,
	date time.Time,
) (*driving.BatchResult, error) {
	logger.Section(fmt.Sprintf("decrypt batch %s", date.Format(domain.CompactDate)))

	result := &driving.BatchResult{Date: date}

	files, err := p.discover(date)
	if err != nil {
		p.record(ctx, date, result, err)
		return nil, err
	}
	result.Total = len(files)

	destDir := filepath.Join(p.targetDir, date.Format(domain.CompactDate))
	if err := os.MkdirAll(destDir, 0750); err != nil {
		err = fmt.Errorf("creating target directory: %w", err)
		p.record(ctx, date, result, err)
		return nil, err
	}

	// Resolve and import the key once for the whole batch. Importing is
	// an idempotent setup step, not a per-file cost.
	material, err := p.prepareKey(ctx, date, files)
	if err != nil {
		p.record(ctx, date, result, err)
		return nil, err
	}

	for i := range files {
		p.publish(driven.ProgressEvent{
			Type:        driven.ProgressFile,
			Total:       result.Total,
			Processed:   result.Processed,
			Decrypted:   result.Decrypted,
			Copied:      result.Copied,
			Failed:      result.Failed,
			CurrentFile: files[i].Filename,
		})

		if err := p.processFile(ctx, &files[i], destDir, material); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", files[i].Filename, err))
			logger.Warn("processing %s: %v", files[i].Filename, err)
		} else if files[i].IsEncrypted {
			result.Decrypted++
		} else {
			result.Copied++
		}
		result.Processed++
	}

	p.publish(driven.ProgressEvent{
		Type:      driven.ProgressComplete,
		Total:     result.Total,
		Processed: result.Processed,
		Decrypted: result.Decrypted,
		Copied:    result.Copied,
		Failed:    result.Failed,
	})

	p.record(ctx, date, result, nil)
	logger.Info("batch complete: %d decrypted, %d copied, %d failed", result.Decrypted, result.Copied, result.Failed)
	return result, nil
}

// discover walks the source tree recursively and keeps files whose
// embedded 8-digit date matches the target date. Files without a date
// token are ignored entirely.
func (p *DecryptBatchProcessor) discover(date time.Time) ([]domain.FileDescriptor, error) {
	if _, err := os.Stat(p.sourceDir); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceMissing, p.sourceDir)
	}

	target := date.Format(domain.CompactDate)
	var files []domain.FileDescriptor
	err := filepath.WalkDir(p.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		desc, ok := domain.DescribeFile(path)
		if !ok {
			return nil
		}
		if desc.Date.Format(domain.CompactDate) != target {
			return nil
		}
		files = append(files, desc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source tree: %w", err)
	}
	return files, nil
}

// prepareKey resolves key material and imports the key once when the
// batch contains any encrypted file. Returns zero material otherwise.
func (p *DecryptBatchProcessor) prepareKey(
	ctx context.Context,
	date time.Time,
	files []domain.FileDescriptor,
) (domain.KeyMaterial, error) {
	encrypted := false
	for i := range files {
		if files[i].IsEncrypted {
			encrypted = true
			break
		}
	}
	if !encrypted {
		return domain.KeyMaterial{}, nil
	}

	material, err := p.keys.Resolve(date)
	if err != nil {
		return domain.KeyMaterial{}, fmt.Errorf("resolving key: %w", err)
	}
	if err := p.decryptor.ImportKey(ctx, material.KeyFile, material.Passphrase); err != nil {
		return domain.KeyMaterial{}, fmt.Errorf("importing key: %w", err)
	}

	for i := range files {
		if files[i].IsEncrypted {
			files[i].KeyFile = material.KeyFile
		}
	}
	return material, nil
}

// processFile decrypts an encrypted file or copies a plain one into the
// dated destination directory.
func (p *DecryptBatchProcessor) processFile(
	ctx context.Context,
	file *domain.FileDescriptor,
	destDir string,
	material domain.KeyMaterial,
) error {
	if file.IsEncrypted {
		return p.decryptor.Decrypt(ctx, file.FilePath, destDir, material.KeyFile, material.Passphrase)
	}
	return copyFile(file.FilePath, filepath.Join(destDir, file.Filename))
}

// record persists the single DecryptLog row for this invocation.
// Failures to write the log are logged, not raised: the batch outcome
// has already been decided.
func (p *DecryptBatchProcessor) record(
	ctx context.Context,
	date time.Time,
	result *driving.BatchResult,
	runErr error,
) {
	status := domain.StatusSuccess
	message := ""
	if runErr != nil {
		status = domain.StatusFail
		message = runErr.Error()
	} else if result.Failed > 0 {
		status = domain.StatusFail
	}

	log := &domain.DecryptLog{
		ID:        uuid.NewString(),
		Date:      date,
		Status:    status,
		Total:     result.Total,
		Decrypted: result.Decrypted,
		Copied:    result.Copied,
		Failed:    result.Failed,
		Message:   message,
		RunAt:     time.Now().UTC(),
	}
	if err := p.logs.Record(ctx, log); err != nil {
		logger.Warn("recording decrypt log: %v", err)
	}
}

// publish emits a progress event when a publisher is configured.
func (p *DecryptBatchProcessor) publish(event driven.ProgressEvent) {
	if p.progress != nil {
		p.progress.Publish(event)
	}
}

// copyFile copies a file verbatim, preserving nothing but contents.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
