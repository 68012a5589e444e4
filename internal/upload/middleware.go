package upload

import (
	"context"
	"runtime"

	"campusnest_backend/internal/logger"
	"campusnest_backend/pkg/apperrors"
	"campusnest_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// handle is the middleware adapter: intake, then processing, then the
// results are put on the gin context for the downstream handler. Any error
// goes to c.Error and aborts the chain; rendering is left to the central
// error handler.
func (u *Uploader) handle(rules formRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithCategory(c.Request.Context(), u.category.Name)

		in, err := u.intake(c, rules)
		if err != nil {
			logger.CtxWarn(ctx, "upload rejected", "error", err.Error())
			abort(c, err)
			return
		}
		if rules.mode == modeNone || len(in.files) == 0 {
			return
		}

		if timeout := u.category.Options.ProcessTimeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		results, err := u.processAll(ctx, in.files)
		if err != nil {
			logger.CtxWithError(ctx, "upload processing failed", err, "files", len(in.files))
			abort(c, err)
			return
		}

		if rules.mode == modeSingle {
			c.Set(contextkeys.UploadedFileKey, results[0])
		} else {
			c.Set(contextkeys.UploadedFilesKey, groupByField(results))
		}
		logger.CtxInfo(ctx, "upload batch stored", "files", len(results))
	}
}

// processAll runs one ProcessFile per file in parallel and reports the first
// failure. Siblings of a failed file are not cancelled and their output is
// kept unless the category opts into RollbackOnFailure. Results keep the
// order of files.
func (u *Uploader) processAll(ctx context.Context, files []IncomingFile) ([]ProcessedFile, error) {
	results := make([]ProcessedFile, len(files))
	stored := make([]bool, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			pf, err := u.ProcessFile(ctx, file)
			if err != nil {
				return err
			}
			results[i] = pf
			stored[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if u.category.Options.RollbackOnFailure {
			u.rollback(context.WithoutCancel(ctx), results, stored)
		}
		if _, ok := apperrors.AsAppError(err); !ok {
			err = apperrors.ErrProcessingFailed(err, "", "")
		}
		return nil, err
	}
	return results, nil
}

func (u *Uploader) rollback(ctx context.Context, results []ProcessedFile, stored []bool) {
	var kept []ProcessedFile
	for i, ok := range stored {
		if ok {
			kept = append(kept, results[i])
		}
	}
	u.Discard(ctx, kept)
}

// Discard deletes files this uploader stored, for callers that fail after
// the middleware succeeded. Delete errors are logged, not returned.
func (u *Uploader) Discard(ctx context.Context, files []ProcessedFile) {
	for _, f := range files {
		if err := u.storage.Delete(ctx, f.Key); err != nil {
			logger.CtxWithError(ctx, "upload rollback failed", err, "key", f.Key)
		}
	}
}

func groupByField(results []ProcessedFile) map[string][]ProcessedFile {
	grouped := make(map[string][]ProcessedFile)
	for _, pf := range results {
		grouped[pf.FieldName] = append(grouped[pf.FieldName], pf)
	}
	return grouped
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// FileFrom returns the file stored by a Single middleware.
func FileFrom(c *gin.Context) (ProcessedFile, bool) {
	v, ok := c.Get(contextkeys.UploadedFileKey)
	if !ok {
		return ProcessedFile{}, false
	}
	pf, ok := v.(ProcessedFile)
	return pf, ok
}

// FilesFrom returns the files stored by an Array or Fields middleware,
// grouped by field name.
func FilesFrom(c *gin.Context) (map[string][]ProcessedFile, bool) {
	v, ok := c.Get(contextkeys.UploadedFilesKey)
	if !ok {
		return nil, false
	}
	files, ok := v.(map[string][]ProcessedFile)
	return files, ok
}
