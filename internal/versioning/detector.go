// Package versioning detects when a newly ingested document supersedes an
// existing one and records the supersession with the reason it was chosen.
package versioning

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"scholargraph/internal/store"
	"scholargraph/pkg/types"
)

// DefaultThreshold is the title-similarity score at or above which two
// documents are considered versions of the same work.
const DefaultThreshold = 0.85

// sessionDatePattern matches filenames like "standup_session_2024-03-01.md"
// so dated session documents with a shared base name chain together even
// when their titles differ.
var sessionDatePattern = regexp.MustCompile(`(?i)session[_-]?(\d{4}[-_]\d{1,2}[-_]\d{1,2})`)

// Detector finds supersession relationships between documents.
type Detector struct {
	store     store.Store
	threshold float64
}

// NewDetector creates a detector. A non-positive threshold selects
// DefaultThreshold.
func NewDetector(s store.Store, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{store: s, threshold: threshold}
}

// Edge describes one supersession decision.
type Edge struct {
	NewerDocID string `json:"newer_doc_id"`
	NewerTitle string `json:"newer_title"`
	OlderDocID string `json:"older_doc_id"`
	OlderTitle string `json:"older_title"`
	Reason     string `json:"reason"`
}

// ReviewItem is an ambiguous cluster: the new document matched more than one
// existing latest document, so no edge was created automatically.
type ReviewItem struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	Candidates []Edge `json:"candidates"`
}

// Report summarizes a detection run.
type Report struct {
	DocumentsChecked int          `json:"documents_checked"`
	Recorded         []Edge       `json:"supersessions"`
	Review           []ReviewItem `json:"needs_review,omitempty"`
	DryRun           bool         `json:"dry_run,omitempty"`
}

// DetectForDocument runs supersession detection for one newly ingested
// document against all current latest versions. Exactly one qualifying
// candidate produces a recorded edge; several qualifying candidates produce
// a review item and no mutation.
func (d *Detector) DetectForDocument(ctx context.Context, doc *types.Document) (*Report, error) {
	latest, err := d.store.ListDocuments(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest documents: %w", err)
	}

	report := &Report{DocumentsChecked: 0}
	var matches []Edge
	for _, candidate := range latest {
		if candidate.DocID == doc.DocID {
			continue
		}
		report.DocumentsChecked++
		ok, reason := d.shouldSupersede(doc, candidate)
		if !ok {
			continue
		}
		matches = append(matches, Edge{
			NewerDocID: doc.DocID,
			NewerTitle: doc.Title,
			OlderDocID: candidate.DocID,
			OlderTitle: candidate.Title,
			Reason:     reason,
		})
	}

	switch len(matches) {
	case 0:
		// New chain at version 1, nothing to record.
	case 1:
		edge := matches[0]
		if err := d.store.RecordSupersession(ctx, edge.NewerDocID, edge.OlderDocID, edge.Reason); err != nil {
			return nil, fmt.Errorf("failed to record supersession: %w", err)
		}
		report.Recorded = append(report.Recorded, edge)
	default:
		report.Review = append(report.Review, ReviewItem{
			DocID:      doc.DocID,
			Title:      doc.Title,
			Candidates: matches,
		})
	}
	return report, nil
}

// DetectAll retroactively scans the corpus oldest-first and links versions
// that were ingested before temporal versioning ran. With dryRun set the
// intended edges are reported but nothing is written.
func (d *Detector) DetectAll(ctx context.Context, dryRun bool) (*Report, error) {
	latest, err := d.store.ListDocuments(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest documents: %w", err)
	}

	report := &Report{DocumentsChecked: len(latest), DryRun: dryRun}
	superseded := make(map[string]bool)
	for i, older := range latest {
		if superseded[older.DocID] {
			continue
		}
		for _, newer := range latest[i+1:] {
			if superseded[newer.DocID] {
				continue
			}
			ok, reason := d.shouldSupersede(newer, older)
			if !ok {
				continue
			}
			edge := Edge{
				NewerDocID: newer.DocID,
				NewerTitle: newer.Title,
				OlderDocID: older.DocID,
				OlderTitle: older.Title,
				Reason:     reason,
			}
			if !dryRun {
				if err := d.store.RecordSupersession(ctx, edge.NewerDocID, edge.OlderDocID, edge.Reason); err != nil {
					return nil, fmt.Errorf("failed to record supersession: %w", err)
				}
			}
			superseded[older.DocID] = true
			report.Recorded = append(report.Recorded, edge)
			break
		}
	}
	return report, nil
}

// shouldSupersede decides whether newer supersedes older and names the
// reason. Order of checks follows decreasing confidence: exact title,
// similarity score, dated-session filename pattern.
func (d *Detector) shouldSupersede(newer, older *types.Document) (bool, string) {
	if !occursAfter(newer, older) {
		return false, ""
	}

	newTitle := normalizeTitle(newer.Title)
	oldTitle := normalizeTitle(older.Title)
	if newTitle != "" && newTitle == oldTitle {
		return true, "exact_title_match"
	}

	if sim := TitleRatio(newer.Title, older.Title); sim >= d.threshold {
		return true, fmt.Sprintf("title_similarity_%.2f", sim)
	}

	if base, ok := sessionBase(newer.SourcePath); ok {
		if oldBase, oldOK := sessionBase(older.SourcePath); oldOK && base == oldBase {
			return true, "session_document_pattern"
		}
	}
	return false, ""
}

// occursAfter orders two documents: publication dates when both are present
// and differ, ingestion time otherwise.
func occursAfter(newer, older *types.Document) bool {
	if newer.PublishedAt != nil && older.PublishedAt != nil &&
		!newer.PublishedAt.Equal(*older.PublishedAt) {
		return newer.PublishedAt.After(*older.PublishedAt)
	}
	return newer.IngestedAt.After(older.IngestedAt)
}

// sessionBase extracts the filename stem with the session date removed,
// e.g. "standup_session_2024-03-01" -> "standup". The second return is false
// when the filename carries no session date.
func sessionBase(path string) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !sessionDatePattern.MatchString(stem) {
		return "", false
	}
	base := sessionDatePattern.ReplaceAllString(stem, "")
	base = strings.Trim(base, "-_")
	return strings.ToLower(base), true
}
