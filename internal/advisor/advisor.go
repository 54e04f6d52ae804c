package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/portfolio"
)

// FallbackAdvisory substitutes for generated text when the retry budget
// is exhausted.
const FallbackAdvisory = "The advisory service is busy right now. Your alerts and health score are up to date; try again in a moment for fresh commentary."

const advisoryPrompt = `You are a cautious financial research assistant. Given a portfolio and its recent news alerts, write a short markdown advisory.

Keep it factual and measured. Structure:
- One-paragraph overall read of the portfolio
- Up to three bullet points on notable alerts
- One sentence on diversification

Never recommend specific trades. Max 180 words.

Portfolio:
%s

Recent alerts:
%s`

// Advisor turns the current portfolio state into advisory text.
type Advisor struct {
	provider  Provider
	policy    RetryPolicy
	maxTokens int
}

// New creates an Advisor. A nil provider yields the fallback advisory
// on every call.
func New(provider Provider, policy RetryPolicy, maxTokens int) *Advisor {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Advisor{provider: provider, policy: policy, maxTokens: maxTokens}
}

// Advise generates markdown advisory text for the given state. On
// failure the fixed fallback advisory is returned along with the error
// so callers can distinguish generated from substituted text.
func (a *Advisor) Advise(ctx context.Context, snapshot portfolio.Snapshot, alerts []alert.Alert) (string, error) {
	if a.provider == nil || !a.provider.IsConfigured() {
		return FallbackAdvisory, ErrServiceBusy
	}

	prompt := fmt.Sprintf(advisoryPrompt, formatHoldings(snapshot), formatAlerts(alerts))

	text, err := a.policy.Do(ctx, func(ctx context.Context) (string, error) {
		return a.provider.Generate(ctx, prompt, a.maxTokens)
	})
	if err != nil {
		logger.Log.Warnf("advisory generation failed: %v", err)
		return FallbackAdvisory, err
	}
	return strings.TrimSpace(text), nil
}

func formatHoldings(snapshot portfolio.Snapshot) string {
	if len(snapshot.Holdings) == 0 {
		return "(no holdings)"
	}
	var b strings.Builder
	for _, h := range snapshot.Holdings {
		fmt.Fprintf(&b, "- %s: qty %.2f, avg price %.2f, current value %.2f, daily change %.2f%%\n",
			h.Symbol, h.Quantity, h.AvgPrice, h.CurrentValue, h.DailyChangePercent)
	}
	return b.String()
}

func formatAlerts(alerts []alert.Alert) string {
	if len(alerts) == 0 {
		return "(no recent alerts)"
	}
	var b strings.Builder
	for i, al := range alerts {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "- [%s, %s] %s\n", al.Symbol, al.Sentiment, al.Title)
	}
	return b.String()
}
