package capability

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/safeguard/internal/safety"
)

// Screening combines the verdicts of one Screen call.
type Screening struct {
	Content   string                 `json:"content"`
	RiskLevel safety.RiskLevel       `json:"risk_level"`
	Bullying  *safety.BullyingResult `json:"bullying"`
	Unsafe    *safety.UnsafeResult   `json:"unsafe"`
	Emotions  *safety.EmotionsResult `json:"emotions"`
}

// ErrEmptyContent is returned by Screen for blank content.
var ErrEmptyContent = errors.New("capability: content is empty")

// Screen runs bullying, unsafe-content and emotion analysis on content in
// parallel, each through its own operation in s. The first failure cancels
// the others and is returned.
func Screen(ctx context.Context, s *Set, content string) (*Screening, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	res := &Screening{Content: content}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := s.DetectBullying.Execute(gctx, safety.DetectBullyingInput{Content: content})
		res.Bullying = out
		return err
	})
	g.Go(func() error {
		out, err := s.DetectUnsafe.Execute(gctx, safety.DetectUnsafeInput{Content: content})
		res.Unsafe = out
		return err
	})
	g.Go(func() error {
		out, err := s.AnalyzeEmotions.Execute(gctx, safety.AnalyzeEmotionsInput{Content: content})
		res.Emotions = out
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.RiskLevel = overallRisk(res)
	return res, nil
}

func overallRisk(r *Screening) safety.RiskLevel {
	switch {
	case r.Unsafe != nil && r.Unsafe.Unsafe:
		return safety.RiskCritical
	case r.Bullying != nil && r.Bullying.IsBullying:
		if r.Bullying.Severity == safety.SeverityHigh || r.Bullying.Severity == safety.SeverityCritical {
			return safety.RiskHigh
		}
		return safety.RiskMedium
	case r.Emotions != nil && r.Emotions.Trend == "worsening":
		return safety.RiskLow
	}
	return safety.RiskSafe
}
