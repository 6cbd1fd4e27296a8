package welcome

// Topic is one of the suggestion cards shown while the transcript is empty.
type Topic struct {
	ID     string `json:"id"`
	Icon   string `json:"icon"`
	Label  string `json:"label"`
	Prompt string `json:"prompt,omitempty"` // 点击卡片时填入输入框的示例问题
}

// Greeting groups the static copy of the welcome panel.
type Greeting struct {
	Title  string  `json:"title"`
	Intro  string  `json:"intro"`
	Hint   string  `json:"hint"`
	Topics []Topic `json:"topics"`
}

// DefaultGreeting returns the copy rendered above the topic cards.
func DefaultGreeting(topics []Topic) Greeting {
	return Greeting{
		Title:  "Welcome to Nexa AI! 👋",
		Intro:  "Ask me anything. I'm here to help with:",
		Hint:   "Type your question below and press Enter or click Send🪄",
		Topics: topics,
	}
}

// Seed provides the default welcome topics.
func Seed() []Topic {
	return []Topic{
		{
			ID:     "advisor",
			Icon:   "💡",
			Label:  "Your Advisor",
			Prompt: "I need advice on planning my week. Where should I start?",
		},
		{
			ID:     "technical",
			Icon:   "🔧",
			Label:  "Technical questions",
			Prompt: "Explain the difference between a process and a thread.",
		},
		{
			ID:     "writing",
			Icon:   "📝",
			Label:  "Writing assistance",
			Prompt: "Help me write a short, friendly out-of-office reply.",
		},
		{
			ID:     "knowledge",
			Icon:   "🤔",
			Label:  "Knowledge Gain",
			Prompt: "Why is the sky blue?",
		},
	}
}
