package templates

const analystSystem = "You are an assistant that analyzes meeting transcripts and conversations. " +
	"Use direct, concise language and leave out redundant or secondary detail."

func builtins() []Template {
	return []Template{
		{
			Name:         "default",
			Description:  "Structured summary with key points, actions and sentiment",
			System:       "You are an AI specialized in creating concise and comprehensive summaries.",
			Instructions: "Analyze the following text and produce a structured summary.",
			Sections: []Section{
				{Key: "executive_summary", Title: "Executive Summary", Instruction: "the essence of the content in at most 3 sentences"},
				{Key: "key_points", Title: "Key Points", Instruction: "at most 5 truly important points, one per line"},
				{Key: "action_items", Title: "Action Items", Instruction: "concrete tasks with owner and deadline when mentioned; omit ownerless tasks"},
				{Key: "sentiment", Title: "Overall Sentiment", Instruction: "dominant tone and significant shifts in 1 or 2 sentences"},
			},
			Parameters: Parameters{MaxLength: 800, Style: "executive", Format: "structured"},
		},
		{
			Name:         "executive",
			Description:  "Executive summary for business audiences",
			System:       "You are an AI specialized in creating executive summaries for business audiences.",
			Instructions: "Produce a results-oriented executive summary. Avoid technical detail that does not affect decisions.",
			Sections: []Section{
				{Key: "objective", Title: "Objective", Instruction: "the main purpose of the meeting or document"},
				{Key: "key_points", Title: "Key Points", Instruction: "at most 3 main points"},
				{Key: "decisions", Title: "Decisions", Instruction: "important decisions that were made"},
				{Key: "next_steps", Title: "Next Steps", Instruction: "concrete actions with owners and deadlines when stated"},
				{Key: "expected_impact", Title: "Expected Impact", Instruction: "expected results or benefits"},
			},
			Parameters: Parameters{MaxLength: 800, Style: "executive", Format: "structured"},
		},
		{
			Name:         "quick",
			Description:  "Ultra-concise summary",
			System:       "You are an AI that creates ultra-concise summaries focusing only on essential information.",
			Instructions: "Produce an ultra-concise summary containing only the essentials.",
			Sections: []Section{
				{Key: "main_idea", Title: "Main Idea", Instruction: "one sentence"},
				{Key: "critical_points", Title: "Critical Points", Instruction: "at most 3 bullets"},
				{Key: "conclusion", Title: "Conclusion", Instruction: "the key outcome in one sentence"},
			},
			Parameters: Parameters{MaxLength: 200, Style: "concise", Format: "minimal"},
		},
		{
			Name:         "summary",
			Description:  "Plain summary",
			System:       analystSystem,
			Instructions: "Summarize the following text.",
			Sections:     []Section{{Key: "summary", Title: "Summary", Instruction: "a concise summary in a few paragraphs"}},
			Parameters:   Parameters{MaxLength: 500, Style: "neutral"},
		},
		{
			Name:         "key_points",
			Description:  "Main points discussed",
			System:       analystSystem,
			Instructions: "Extract the key points of the following text.",
			Sections:     []Section{{Key: "key_points", Title: "Key Points", Instruction: "the main points, one per line"}},
		},
		{
			Name:         "action_items",
			Description:  "Tasks, owners and deadlines",
			System:       analystSystem,
			Instructions: "Extract the action items from the following text.",
			Sections:     []Section{{Key: "action_items", Title: "Action Items", Instruction: "one task per line with owner and deadline when mentioned"}},
		},
		{
			Name:         "sentiment",
			Description:  "Tone and sentiment analysis",
			System:       analystSystem,
			Instructions: "Analyze the sentiment of the following text.",
			Sections: []Section{
				{Key: "sentiment", Title: "Overall Sentiment", Instruction: "positive, negative, neutral or mixed, with a short justification"},
				{Key: "shifts", Title: "Tone Shifts", Instruction: "significant changes in tone and when they happen"},
			},
		},
		{
			Name:   Classify,
			System: "You classify conversations to choose the best analysis format.",
			Instructions: "Choose the single best analysis template for the following text from this list:\n" +
				"{templates}\n\n" +
				"Answer on the first line as \"Template: <name>\" and give a one-sentence reason on the next line.",
			internal: true,
		},
		{
			Name:         Chunk,
			System:       analystSystem,
			Instructions: "This is one part of a longer conversation. Summarize it, keeping every decision, action item, owner, date and figure.",
			internal:     true,
		},
	}
}
