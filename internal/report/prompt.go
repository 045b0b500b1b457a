package report

import (
	"encoding/json"
	"fmt"

	"marketpulse-go/internal/market"
)

const systemPrompt = "You are a concise, neutral markets explainer."

// BuildPrompt renders the long-form report prompt around the snapshot JSON,
// which the model must treat as the only numerical source of truth.
func BuildPrompt(snapshot market.Snapshot, persona string, horizonDays int) (string, error) {
	snapshotJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	return fmt.Sprintf(`
You are writing a thoughtful, long-form explainer about a single stock.
Your job is to help an intelligent layperson understand what this company is,
what its recent price behavior looks like, and what a careful investor might
want to think about next.

You are NOT allowed to give direct investment advice.
Do NOT say "buy", "sell", "strong buy", "overweight", "underweight",
"you should", or give price targets or probability-weighted forecasts.

Persona / angle:
%s

Time horizon to keep in mind: roughly %d days.

Below is a JSON snapshot of the stock and its relationship to the S&P 500
universe. You MUST treat this as the only numerical source of truth.
You may rephrase, aggregate, or compare these numbers, but you may not invent
new numeric values that are not implied by the JSON.

STOCK_SNAPSHOT_JSON:
%s

---

Write a single, cohesive markdown report in a style that is:

- Clear and precise
- Analytically sharp, but not hyped
- Slightly reflective / philosophical in tone (like a good essay), while
  still grounded in the data above
- Suitable for an educated retail investor who is curious but not a quant

Use the following structure and headings:

# %s — Plain-English Overview

Briefly explain what this company actually *is* and *does* in everyday language.
One or two paragraphs, no jargon when it can be avoided.

## Where the Stock Stands Right Now

Summarize key metrics using ONLY the JSON above. Focus on things like:
- Recent returns over different horizons
- Where the price sits relative to its recent range or 52-week range
- Volatility / stability compared to the broader S&P universe
- Any notable breadth or momentum context you can infer

Use bullet points for the metrics. When you reference numbers,
either quote them directly or describe them qualitatively
("roughly flat over three months", "well off recent highs", etc.).

## How to Read These Numbers

Interpret the metrics in plain language:
- What do these numbers *suggest* about momentum, sentiment, or regime?
- Does this look like a calm, trending story, a choppy sideways story,
  or something more dramatic?
- Tie your interpretation back to the metrics you just quoted.
Avoid speculation about news or fundamentals you were not given.

## Scenario Thinking: What Could Go Right

Give 2-4 bullet points describing upside scenarios.
Ground each in patterns visible in the JSON (momentum, volatility, breadth, etc.)
rather than in hypothetical product launches or headlines.
Write in terms of "if X continues / improves, then the bull case is that...".

## Scenario Thinking: What Could Go Wrong

Give 2-4 bullet points describing downside or risk scenarios.
Again, ground your reasoning in the data: draw on volatility,
drawdowns, relative performance, or concentration of recent gains.
Avoid dramatic language; be calm and precise.

## How a Thoughtful Investor Might Use This

One or two paragraphs. The goal here is not to tell the reader what to do,
but to frame *how* to think:
- What kinds of questions should someone be asking about this stock
  given the current profile?
- What time horizons (short-term trader vs patient holder) are suggested
  by the data?
- How might this stock fit into a broader S&P-like portfolio in terms of
  risk, cyclicality, or temperament?

End with a clear reminder that this is an educational, statistical snapshot
only and does not account for the reader's personal situation, and that it is
NOT financial advice.

Write everything in well-structured markdown. Do not include the raw JSON.
`, StyleFor(persona), horizonDays, snapshotJSON, snapshot.Ticker), nil
}
