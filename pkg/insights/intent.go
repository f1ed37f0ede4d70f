package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// Intent names a kind of AI-backed request.
type Intent string

const (
	IntentInsights          Intent = "insights"
	IntentMarketIntel       Intent = "market-intel"
	IntentSEOAudit          Intent = "seo-audit"
	IntentSocialSuggestions Intent = "social-suggestions"
	IntentAgenticReasoning  Intent = "agentic-reasoning"
	IntentAutonomousScan    Intent = "autonomous-scan"
)

// Grounded reports whether the intent asks the provider for live web search.
func (i Intent) Grounded() bool {
	switch i {
	case IntentMarketIntel, IntentSEOAudit, IntentAutonomousScan:
		return true
	}
	return false
}

const (
	// DefaultFlashModel serves the fast intents.
	DefaultFlashModel = "gemini-3-flash-preview"
	// DefaultProModel serves agentic reasoning.
	DefaultProModel = "gemini-3-pro-preview"
	// DefaultThinkingBudget is the token budget granted to agentic reasoning.
	DefaultThinkingBudget int32 = 4000
	// DefaultPlatforms is used when social suggestions are requested without platforms.
	DefaultPlatforms = "LinkedIn and Instagram"
)

// Fixed texts returned when a non-grounded intent degrades or a grounded intent answers empty.
const (
	FallbackInsights  = "Could not generate insights at this time."
	FallbackSocial    = "Failed to generate suggestions."
	FallbackReasoning = "Agent encountered a processing error. Retrying autonomous scan..."
	FallbackScan      = "Scan failed."
	EmptyMarketIntel  = "No live data found."
	EmptySEOAudit     = "Audit analysis unavailable."
)

// InsightsPrompt builds the strategic insights prompt for a snapshot.
func InsightsPrompt(snapshot analytics.Snapshot) (string, error) {
	data, err := snapshotJSON(snapshot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Analyze this marketing dashboard data and provide strategic insights: %s. Focus on ROI and channel optimization.", data), nil
}

// MarketIntelPrompt builds the grounded market intelligence prompt.
func MarketIntelPrompt(channel string) string {
	return fmt.Sprintf("Provide a live market intelligence report for the %s marketing channel. Include current benchmarks and recent competitor moves.", channel)
}

// SEOAuditPrompt builds the grounded SEO audit prompt.
func SEOAuditPrompt(domain string) string {
	return fmt.Sprintf("Perform a high-level SEO audit for the domain: %s. Search for its search presence, technical health indicators, and backlink profile.", domain)
}

// SocialPrompt builds the social content suggestion prompt.
func SocialPrompt(topic, platforms string) string {
	return fmt.Sprintf("Suggest creative and engaging social media content ideas for the following topic: \"%s\" across these platforms: %s. Include hooks and call-to-actions.", topic, platforms)
}

// ReasoningPrompt builds the agentic reasoning prompt for a goal.
func ReasoningPrompt(snapshot analytics.Snapshot, goal string) (string, error) {
	data, err := snapshotJSON(snapshot)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("You are the \"MarketInsight Autonomous Agent\".\n")
	fmt.Fprintf(&b, "Current Goal: %s\n", goal)
	fmt.Fprintf(&b, "Current Data State: %s\n\n", data)
	b.WriteString("Perform a deep reasoning step.\n")
	b.WriteString("1. Identify 3 anomalies in the data.\n")
	b.WriteString("2. Propose 3 specific 'Interventions' (actions the user should approve).\n")
	b.WriteString("3. Explain the projected impact of each intervention.\n\n")
	b.WriteString("Formatting: Return a clear, actionable strategy.")
	return b.String(), nil
}

// ScanPrompt builds the grounded autonomous scan prompt.
func ScanPrompt(channel string) string {
	return fmt.Sprintf("Autonomous scan of %s market trends. Identify one critical opportunity for an agent to execute today.", channel)
}

func snapshotJSON(snapshot analytics.Snapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("insights: encode snapshot: %w", err)
	}
	return string(data), nil
}
