package catalog

import "trendle/internal/domain"

// Seed returns the shipped format templates in catalog order.
func Seed() []domain.Format {
	return []domain.Format{
		{
			FormatID:      "yc_demo_classic",
			Name:          "YC Demo Day Classic",
			Description:   "The classic Y Combinator demo video format - problem, solution, demo, traction",
			PlatformFit:   []string{"YouTube", "LinkedIn", "Twitter"},
			DurationRange: [2]int{60, 180},
			Structure: []domain.SegmentTemplate{
				{Segment: "hook", Duration: 5, ScriptTemplate: "We're [Company Name] and we're [solving X problem] for [Y audience]", VisualGuide: "Founder speaking directly to camera, simple background", Required: true},
				{Segment: "problem", Duration: 15, ScriptTemplate: "Today, [target audience] struggle with [specific problem]. This costs them [quantifiable impact]", VisualGuide: "Show the problem - screen recordings, statistics, user testimonials", Required: true},
				{Segment: "solution", Duration: 10, ScriptTemplate: "We built [product name] to solve this. Here's how it works...", VisualGuide: "Product logo, quick overview shot", Required: true},
				{Segment: "demo", Duration: 30, ScriptTemplate: "Let me show you... [walk through 2-3 key features]", VisualGuide: "Screen recording of product in action, narrated walkthrough", Required: true},
				{Segment: "traction", Duration: 10, ScriptTemplate: "We've helped [X users/companies] achieve [Y result]", VisualGuide: "Show metrics, testimonials, growth charts", Required: true},
				{Segment: "call_to_action", Duration: 5, ScriptTemplate: "Try [product] at [website] and [specific CTA]", VisualGuide: "Simple card with website and CTA", Required: true},
			},
			Tags:          []string{"b2b", "saas", "startup", "demo", "professional"},
			ExampleVideos: []string{"https://www.youtube.com/watch?v=example_yc"},
			Metrics:       domain.SuccessMetrics{AvgRetention: 0.75, AvgConversion: 0.05, ViralScore: 85},
		},
		{
			FormatID:      "cluely_launch",
			Name:          "Cluely Launch Style",
			Description:   "Fast-paced, personality-driven product launch video with quick cuts and energy",
			PlatformFit:   []string{"TikTok", "Instagram", "Twitter"},
			DurationRange: [2]int{30, 60},
			Structure: []domain.SegmentTemplate{
				{Segment: "hook", Duration: 3, ScriptTemplate: "POV: You just launched [product] and...", VisualGuide: "Energetic opener, founder with personality, quick zoom", Required: true},
				{Segment: "problem_callout", Duration: 5, ScriptTemplate: "Everyone knows [common pain point] is broken", VisualGuide: "Fast cuts showing frustration, relatable moments", Required: true},
				{Segment: "solution_reveal", Duration: 7, ScriptTemplate: "So we built [product] - it's [one-liner description]", VisualGuide: "Product reveal with visual flair, logo animation", Required: true},
				{Segment: "key_features", Duration: 20, ScriptTemplate: "You can [feature 1], [feature 2], and [feature 3]", VisualGuide: "Rapid screen recordings, text overlays highlighting features", Required: true},
				{Segment: "social_proof", Duration: 5, ScriptTemplate: "[X] people are already using it", VisualGuide: "Show user count, testimonials, or usage clips", Required: false},
				{Segment: "cta", Duration: 5, ScriptTemplate: "Link in bio / Go to [website]", VisualGuide: "End card with clear CTA and website", Required: true},
			},
			Tags:          []string{"consumer", "fast-paced", "personality", "viral", "short-form"},
			ExampleVideos: []string{"https://twitter.com/cluely/status/example"},
			Metrics:       domain.SuccessMetrics{AvgRetention: 0.85, AvgShares: 500, ViralScore: 92},
		},
		{
			FormatID:      "educational_tutorial",
			Name:          "Educational Tutorial Format",
			Description:   "Step-by-step tutorial format for teaching skills or product usage",
			PlatformFit:   []string{"YouTube", "Instagram", "TikTok"},
			DurationRange: [2]int{45, 120},
			Structure: []domain.SegmentTemplate{
				{Segment: "hook", Duration: 5, ScriptTemplate: "Want to [achieve X]? Here's how in [Y] steps", VisualGuide: "Show end result, create curiosity", Required: true},
				{Segment: "intro", Duration: 5, ScriptTemplate: "I'm [name] and I'll show you exactly how to [do X]", VisualGuide: "Quick self-intro, establish credibility", Required: true},
				{Segment: "step_1", Duration: 15, ScriptTemplate: "Step 1: [First step] - Here's why this matters...", VisualGuide: "Screen recording or demo of step 1", Required: true},
				{Segment: "step_2", Duration: 15, ScriptTemplate: "Step 2: [Second step] - Pro tip: [insider advice]", VisualGuide: "Screen recording or demo of step 2", Required: true},
				{Segment: "step_3", Duration: 15, ScriptTemplate: "Step 3: [Final step] - This is where most people mess up", VisualGuide: "Screen recording or demo of step 3", Required: true},
				{Segment: "recap", Duration: 10, ScriptTemplate: "Quick recap: [1, 2, 3]. Now you can [achieve result]", VisualGuide: "Quick cuts of all steps", Required: true},
				{Segment: "cta", Duration: 5, ScriptTemplate: "Save this for later, follow for more [niche] content", VisualGuide: "Subscribe/follow prompt", Required: true},
			},
			Tags:    []string{"educational", "tutorial", "how-to", "step-by-step"},
			Metrics: domain.SuccessMetrics{AvgRetention: 0.70, AvgSaves: 200, ViralScore: 78},
		},
		{
			FormatID:      "before_after_transformation",
			Name:          "Before/After Transformation",
			Description:   "Show dramatic transformation or improvement using your product/method",
			PlatformFit:   []string{"TikTok", "Instagram", "YouTube"},
			DurationRange: [2]int{15, 60},
			Structure: []domain.SegmentTemplate{
				{Segment: "hook", Duration: 2, ScriptTemplate: "This is [before state]", VisualGuide: "Show problematic before state", Required: true},
				{Segment: "before_context", Duration: 8, ScriptTemplate: "I was struggling with [problem] and nothing worked until...", VisualGuide: "More before footage, build empathy", Required: true},
				{Segment: "transformation", Duration: 15, ScriptTemplate: "Then I tried [solution/product] and here's what happened", VisualGuide: "Show the process, product in action", Required: true},
				{Segment: "after_reveal", Duration: 5, ScriptTemplate: "Now look at this [after state]", VisualGuide: "Dramatic after reveal", Required: true},
				{Segment: "cta", Duration: 5, ScriptTemplate: "Get [product] at [link]", VisualGuide: "Product link and CTA", Required: true},
			},
			Tags:    []string{"transformation", "before-after", "results", "testimonial"},
			Metrics: domain.SuccessMetrics{AvgRetention: 0.88, AvgShares: 350, ViralScore: 89},
		},
	}
}
