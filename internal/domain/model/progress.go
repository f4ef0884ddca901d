package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProgressStep identifies the stage a job is in when a progress snapshot is written.
type ProgressStep string

const (
	StepQueued                      ProgressStep = "queued"
	StepStarting                    ProgressStep = "starting"
	StepResolvingCompetitors        ProgressStep = "resolving_competitors"
	StepFetchingCustomerBacklinks   ProgressStep = "fetching_customer_backlinks"
	StepFetchingCompetitorBacklinks ProgressStep = "fetching_competitor_backlinks"
	StepAnalyzingGaps               ProgressStep = "analyzing_gaps"
	StepCalculatingScore            ProgressStep = "calculating_score"
	StepCompleted                   ProgressStep = "completed"
)

// PayloadKind discriminates the structured data attached to a progress snapshot.
type PayloadKind string

const (
	PayloadKeywordsFound    PayloadKind = "keywords_found"
	PayloadCompetitorsFound PayloadKind = "competitors_found"
	PayloadRunningMetrics   PayloadKind = "running_metrics"
)

// ProgressPayload is implemented by each typed progress payload.
type ProgressPayload interface {
	PayloadKind() PayloadKind
}

// KeywordsFound reports the keyword set being searched.
type KeywordsFound struct {
	Keywords []string `json:"keywords"`
	Location string   `json:"location"`
}

// PayloadKind implements ProgressPayload.
func (KeywordsFound) PayloadKind() PayloadKind { return PayloadKeywordsFound }

// CompetitorsFound reports the resolved competitor set.
type CompetitorsFound struct {
	Competitors []string `json:"competitors"`
}

// PayloadKind implements ProgressPayload.
func (CompetitorsFound) PayloadKind() PayloadKind { return PayloadCompetitorsFound }

// RunningMetrics reports intermediate numbers as they become available.
type RunningMetrics struct {
	CurrentLinks       *int     `json:"current_links,omitempty"`
	LinksGained        *int     `json:"links_gained,omitempty"`
	CompetitorAverage  *float64 `json:"competitor_average,omitempty"`
	CompetitorsFetched int      `json:"competitors_fetched"`
	CompetitorsTotal   int      `json:"competitors_total"`
	LinkGapsTotal      *int     `json:"link_gaps_total,omitempty"`
	LinkScore          *int     `json:"link_score,omitempty"`
}

// PayloadKind implements ProgressPayload.
func (RunningMetrics) PayloadKind() PayloadKind { return PayloadRunningMetrics }

// Progress is the latest snapshot of a job's advancement. Each write replaces the previous one.
type Progress struct {
	Step      ProgressStep
	Message   string
	Percent   int
	Data      ProgressPayload
	UpdatedAt time.Time
}

type progressWire struct {
	Step      ProgressStep    `json:"step"`
	Message   string          `json:"message"`
	Percent   int             `json:"percent"`
	Kind      PayloadKind     `json:"data_kind,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON encodes the payload alongside its kind so it can be decoded without guessing.
func (p Progress) MarshalJSON() ([]byte, error) {
	w := progressWire{
		Step:      p.Step,
		Message:   p.Message,
		Percent:   p.Percent,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Data != nil {
		raw, err := json.Marshal(p.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal progress data: %w", err)
		}
		w.Kind = p.Data.PayloadKind()
		w.Data = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the payload into the concrete type named by data_kind.
func (p *Progress) UnmarshalJSON(b []byte) error {
	var w progressWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p.Step = w.Step
	p.Message = w.Message
	p.Percent = w.Percent
	p.UpdatedAt = w.UpdatedAt
	p.Data = nil

	if w.Kind == "" || len(w.Data) == 0 {
		return nil
	}

	var (
		payload ProgressPayload
		err     error
	)
	switch w.Kind {
	case PayloadKeywordsFound:
		var v KeywordsFound
		err = json.Unmarshal(w.Data, &v)
		payload = v
	case PayloadCompetitorsFound:
		var v CompetitorsFound
		err = json.Unmarshal(w.Data, &v)
		payload = v
	case PayloadRunningMetrics:
		var v RunningMetrics
		err = json.Unmarshal(w.Data, &v)
		payload = v
	default:
		return fmt.Errorf("unknown progress data kind: %q", w.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", w.Kind, err)
	}
	p.Data = payload
	return nil
}

// ClampPercent bounds a percentage to 0..100.
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
