// Package archive periodically exports saved cases to off-box destinations
// so investigations survive the console host.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fraudlens/ringview/internal/idgen"
	"github.com/fraudlens/ringview/internal/model"
	"github.com/fraudlens/ringview/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	ExportID  string    `json:"export_id"`
	Timestamp time.Time `json:"timestamp"`
	CaseCount int       `json:"case_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// caseRecord is one exported case with its full snapshot.
type caseRecord struct {
	store.CaseInfo
	Snapshot model.Snapshot `json:"snapshot"`
}

// ExportJSONL writes every saved case from the store as JSONL to w: a
// header line followed by one case line per saved case, newest first.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	cases, err := s.ListCases(ctx)
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	exportID, err := idgen.NewExportID()
	if err != nil {
		return fmt.Errorf("export id: %w", err)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(record{Type: "header", Data: header{
		Version:   "1",
		Type:      "ringview-archive",
		ExportID:  exportID,
		Timestamp: time.Now().UTC(),
		CaseCount: len(cases),
	}}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, c := range cases {
		snap, _, err := s.GetSnapshot(ctx, c.CaseID)
		if err != nil {
			return fmt.Errorf("get snapshot for %s: %w", c.CaseID, err)
		}
		if err := enc.Encode(record{Type: "case", Data: caseRecord{
			CaseInfo: c,
			Snapshot: snap,
		}}); err != nil {
			return fmt.Errorf("write case %s: %w", c.CaseID, err)
		}
	}
	return nil
}
