package trends

var curatedHashtags = []Hashtag{
	{Hashtag: "fyp", VideoCount: 15000000, EngagementScore: 0.92},
	{Hashtag: "viral", VideoCount: 12000000, EngagementScore: 0.89},
	{Hashtag: "trending", VideoCount: 10000000, EngagementScore: 0.87},
	{Hashtag: "contentcreator", VideoCount: 8500000, EngagementScore: 0.85},
	{Hashtag: "tiktokmademebuyit", VideoCount: 7200000, EngagementScore: 0.83},
	{Hashtag: "tutorial", VideoCount: 6800000, EngagementScore: 0.82},
	{Hashtag: "howto", VideoCount: 6500000, EngagementScore: 0.81},
	{Hashtag: "entrepreneurship", VideoCount: 5900000, EngagementScore: 0.79},
	{Hashtag: "startup", VideoCount: 5500000, EngagementScore: 0.78},
	{Hashtag: "productivity", VideoCount: 5200000, EngagementScore: 0.77},
	{Hashtag: "motivation", VideoCount: 4800000, EngagementScore: 0.76},
	{Hashtag: "tech", VideoCount: 4500000, EngagementScore: 0.75},
	{Hashtag: "ai", VideoCount: 4200000, EngagementScore: 0.74},
	{Hashtag: "appdev", VideoCount: 3900000, EngagementScore: 0.73},
	{Hashtag: "languagelearning", VideoCount: 3600000, EngagementScore: 0.72},
	{Hashtag: "edtech", VideoCount: 3300000, EngagementScore: 0.71},
	{Hashtag: "innovation", VideoCount: 3100000, EngagementScore: 0.70},
	{Hashtag: "pitchdeck", VideoCount: 2800000, EngagementScore: 0.69},
	{Hashtag: "demo", VideoCount: 2500000, EngagementScore: 0.68},
	{Hashtag: "producthunt", VideoCount: 2200000, EngagementScore: 0.67},
}

var curatedFormats = []TrendingFormat{
	{
		ID:          "hook-problem-solution",
		Name:        "Hook-Problem-Solution",
		Description: "Start with attention-grabbing hook, present a problem, offer solution in 15-60 seconds",
		Structure:   "0-3s: Hook | 3-20s: Problem | 20-60s: Solution/Demo",
		Examples: []string{
			"'Stop doing X!' → 'Here's why it's wrong' → 'Do this instead'",
			"'I wasted $10k on this' → 'Here's what failed' → 'This worked instead'",
		},
		Metrics: FormatMetrics{AvgCompletionRate: 0.68, AvgEngagement: 0.82, ViralPotential: 0.75},
		BestPractices: []string{
			"Hook must be under 3 seconds",
			"Use pattern interrupt (surprising statement)",
			"Demo should show visible before/after",
			"End with clear CTA",
		},
	},
	{
		ID:          "day-in-the-life",
		Name:        "Day in the Life",
		Description: "Behind-the-scenes look at building/using your product",
		Structure:   "0-5s: Morning hook | 5-30s: Key moments | 30-60s: Results/Takeaway",
		Examples: []string{
			"'6am: Building my AI startup' → Show 3-4 key moments → End with milestone",
			"'Testing my app with 100 users' → Show reactions → Reveal metrics",
		},
		Metrics: FormatMetrics{AvgCompletionRate: 0.71, AvgEngagement: 0.79, ViralPotential: 0.72},
		BestPractices: []string{
			"Time-lapse for repetitive tasks",
			"Show authentic struggles",
			"Include surprising moments",
			"Fast-paced editing (3-5s per clip)",
		},
	},
	{
		ID:          "transformation",
		Name:        "Before → After Transformation",
		Description: "Show clear transformation of your product/user experience",
		Structure:   "0-5s: 'Before' state | 5-15s: The change | 15-30s: 'After' results",
		Examples: []string{
			"'My app before feedback' → 'Changes made' → 'New version'",
			"'User struggling with X' → 'Tries my app' → 'Problem solved'",
		},
		Metrics: FormatMetrics{AvgCompletionRate: 0.74, AvgEngagement: 0.86, ViralPotential: 0.81},
		BestPractices: []string{
			"Make contrast dramatic and obvious",
			"Use side-by-side comparisons",
			"Include metrics if possible",
			"Keep before state relatable",
		},
	},
	{
		ID:          "listicle",
		Name:        "Quick Tips Listicle",
		Description: "'3 ways to X' or '5 mistakes with Y' format",
		Structure:   "0-3s: Hook with number | 3-50s: Rapid-fire tips | 50-60s: CTA",
		Examples: []string{
			"'3 features that made my app go viral'",
			"'5 mistakes I made launching on TikTok'",
		},
		Metrics: FormatMetrics{AvgCompletionRate: 0.65, AvgEngagement: 0.77, ViralPotential: 0.70},
		BestPractices: []string{
			"3-5 items is optimal",
			"Each tip: 8-12 seconds max",
			"Use text overlays for each point",
			"Most surprising tip goes last",
		},
	},
	{
		ID:          "pov-story",
		Name:        "POV Storytelling",
		Description: "'POV: You're...' narrative style content",
		Structure:   "0-2s: 'POV:' setup | 2-40s: Story unfolds | 40-60s: Twist/punchline",
		Examples: []string{
			"'POV: You launched your app and this happened...'",
			"'POV: Your first user gave this feedback'",
		},
		Metrics: FormatMetrics{AvgCompletionRate: 0.69, AvgEngagement: 0.80, ViralPotential: 0.76},
		BestPractices: []string{
			"Make scenario highly relatable",
			"Build tension throughout",
			"Include unexpected twist",
			"Use trending audio",
		},
	},
}
