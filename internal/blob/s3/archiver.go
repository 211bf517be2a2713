package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// multipartThreshold is the payload size above which uploads switch to the
// multipart manager.
const multipartThreshold = 8 * 1024 * 1024

// Narrow store interfaces required by the archiver. The Postgres stores
// satisfy them implicitly; the archiver never needs the full interfaces.

// HistoryArchiveStore provides read and delete access to aged odds history.
type HistoryArchiveStore interface {
	ListHistoryBefore(ctx context.Context, before time.Time, limit int) ([]domain.OddsHistoryRow, error)
	DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error)
}

// OpportunityArchiveStore provides read and delete access to aged
// opportunities.
type OpportunityArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveImpl implements domain.Archiver by querying the stores for aged
// rows, serializing them to JSONL, uploading the result to S3 and then
// deleting the archived rows. Deletion runs only after a successful upload,
// so a failed archive never loses data.
type ArchiveImpl struct {
	writer  *Writer
	history HistoryArchiveStore
	opps    OpportunityArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer *Writer, history HistoryArchiveStore, opps OpportunityArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:  writer,
		history: history,
		opps:    opps,
	}
}

// ArchiveOddsHistory uploads all odds observations before the cutoff to
// archive/odds_history/YYYY-MM.jsonl and deletes them from the primary
// store. It returns the number of rows archived.
func (a *ArchiveImpl) ArchiveOddsHistory(ctx context.Context, before time.Time) (int64, error) {
	rows, err := a.history.ListHistoryBefore(ctx, before, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive odds history query: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive odds history marshal: %w", err)
	}

	if err := a.upload(ctx, archivePath("odds_history", before), buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive odds history upload: %w", err)
	}

	if _, err := a.history.DeleteHistoryBefore(ctx, before); err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: archive odds history delete: %w", err)
	}
	return int64(len(rows)), nil
}

// ArchiveOpportunities uploads all opportunities detected before the cutoff
// to archive/opportunities/YYYY-MM.jsonl and deletes them from the primary
// store. It returns the number of rows archived.
func (a *ArchiveImpl) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opps.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities marshal: %w", err)
	}

	if err := a.upload(ctx, archivePath("opportunities", before), buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities upload: %w", err)
	}

	if _, err := a.opps.DeleteBefore(ctx, before); err != nil {
		return int64(len(opps)), fmt.Errorf("s3blob: archive opportunities delete: %w", err)
	}
	return int64(len(opps)), nil
}

func (a *ArchiveImpl) upload(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) > multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
